// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lexaid-go/internal/config"
)

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk 是上游流式响应中的一个增量分块。
// Err 非 nil 表示流在中途失败，这是通道上的最后一个元素。
type Chunk struct {
	Content string
	Err     error
}

// Client defines the interface for an LLM client.
type Client interface {
	// StreamChat 以 role-based 消息调用聊天补全接口。
	// 返回的通道按上游到达顺序逐块推送增量内容，流结束后关闭。
	// 请求本身失败（连接、非 200 状态）通过返回值 error 报告，此时不产生通道。
	StreamChat(ctx context.Context, messages []Message) (<-chan Chunk, error)
}

type openRouterClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient 创建一个面向 OpenAI 兼容接口（如 OpenRouter）的 LLM 客户端。
// 客户端是显式构造、依赖注入的实例，便于测试时替换为假实现。
func NewClient(cfg config.LLMConfig) Client {
	return &openRouterClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *openRouterClient) StreamChat(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	}
	// 从配置注入生成参数（若非零值）
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	ch := make(chan Chunk)
	// 生产者协程逐行解析上游 SSE，按到达顺序推入通道；
	// 消费方取消 ctx 后发送会被放弃，协程随之退出。
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					// EOF 前可能残留最后一个不带换行的分块，照常处理
					c.emitLine(ctx, line, ch)
					return
				}
				c.send(ctx, ch, Chunk{Err: fmt.Errorf("failed to read from stream: %w", err)})
				return
			}
			if done := c.emitLine(ctx, line, ch); done {
				return
			}
		}
	}()
	return ch, nil
}

// emitLine 解析一行上游 SSE 数据并下发内容分块，返回是否到达流末尾。
func (c *openRouterClient) emitLine(ctx context.Context, line string, ch chan<- Chunk) bool {
	if !strings.HasPrefix(line, "data: ") {
		return false
	}
	data := strings.TrimPrefix(line, "data: ")
	if strings.TrimSpace(data) == "[DONE]" {
		return true
	}

	var chunk chatResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return false
	}

	if len(chunk.Choices) > 0 {
		content := chunk.Choices[0].Delta.Content
		if content != "" {
			if !c.send(ctx, ch, Chunk{Content: content}) {
				return true
			}
		}
	}
	return false
}

// send 向通道推送一个分块；ctx 被取消时放弃发送并返回 false。
func (c *openRouterClient) send(ctx context.Context, ch chan<- Chunk, chunk Chunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
