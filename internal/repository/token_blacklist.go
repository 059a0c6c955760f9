package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBlacklist 记录已登出的 token，条目在 token 自然过期后失效。
type TokenBlacklist interface {
	Add(ctx context.Context, tokenString string, ttl time.Duration) error
	Contains(ctx context.Context, tokenString string) (bool, error)
}

type redisTokenBlacklist struct {
	redisClient *redis.Client
}

// NewTokenBlacklist 创建一个基于 Redis 的 TokenBlacklist 实例。
func NewTokenBlacklist(redisClient *redis.Client) TokenBlacklist {
	return &redisTokenBlacklist{redisClient: redisClient}
}

func blacklistKey(tokenString string) string {
	return fmt.Sprintf("blacklist:%s", tokenString)
}

// Add 将 token 加入黑名单，以其剩余有效期作为过期时间。
func (b *redisTokenBlacklist) Add(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		// token 已过期，无需入黑名单
		return nil
	}
	return b.redisClient.Set(ctx, blacklistKey(tokenString), "true", ttl).Err()
}

// Contains 判断 token 是否在黑名单中。
func (b *redisTokenBlacklist) Contains(ctx context.Context, tokenString string) (bool, error) {
	_, err := b.redisClient.Get(ctx, blacklistKey(tokenString)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return true, nil
}
