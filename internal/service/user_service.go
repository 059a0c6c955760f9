// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"lexaid-go/internal/apperr"
	"lexaid-go/internal/model"
	"lexaid-go/internal/repository"
	"lexaid-go/pkg/hash"
	"lexaid-go/pkg/log"
	"lexaid-go/pkg/token"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(name, email, password string) (*model.User, string, error)
	Login(email, password string) (*model.User, string, error)
	GetProfile(userID uint) (*model.User, error)
	Logout(tokenString string) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	blacklist  repository.TokenBlacklist
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, blacklist repository.TokenBlacklist, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑，成功时返回新用户与签名 token。
func (s *userService) Register(name, email, password string) (*model.User, string, error) {
	// 1. 检查邮箱是否已被注册
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, "", apperr.New(apperr.Conflict, "Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperr.Wrap(apperr.Unexpected, "failed to look up email", err)
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Unexpected, "failed to hash password", err)
	}

	// 3. 创建新用户
	newUser := &model.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, "", apperr.Wrap(apperr.Unexpected, "failed to create user", err)
	}

	// 4. 签发 token
	tokenString, err := s.jwtManager.GenerateToken(newUser.ID, newUser.Email)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Unexpected, "failed to sign token", err)
	}

	return newUser, tokenString, nil
}

// Login 处理用户登录的业务逻辑。
// 邮箱不存在与密码错误返回完全相同的错误文案，避免账号枚举。
func (s *userService) Login(email, password string) (*model.User, string, error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.New(apperr.Auth, "Invalid credentials")
		}
		return nil, "", apperr.Wrap(apperr.Unexpected, "failed to look up email", err)
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, "", apperr.New(apperr.Auth, "Invalid credentials")
	}

	// 3. 签发 token
	tokenString, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Unexpected, "failed to sign token", err)
	}

	return user, tokenString, nil
}

// GetProfile 根据用户 ID 获取用户详细信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Unexpected, "failed to load user", err)
	}
	return user, nil
}

// Logout 处理用户登出逻辑，将 token 加入黑名单。
// token 的剩余有效期将作为黑名单条目的过期时间。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return apperr.Wrap(apperr.Auth, "Token is not valid", err)
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.Add(context.Background(), tokenString, ttl); err != nil {
		log.Error("failed to blacklist token", err)
		return apperr.Wrap(apperr.Unexpected, "failed to logout", err)
	}
	return nil
}
