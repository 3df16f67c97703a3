// Package heygen 提供了一个与 HeyGen 数字人服务交互的客户端，
// 为前端的流式数字人会话签发短期凭证并查询可用形象与声音。
package heygen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/errs"
)

// Client 是 HeyGen 服务的客户端。
type Client struct {
	baseURL string
	apiKey  string
	httpCli *http.Client
}

// NewClient 创建一个新的 HeyGen 客户端实例。
func NewClient(cfg config.HeyGenConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpCli: &http.Client{Timeout: 15 * time.Second},
	}
}

// StreamingToken 是一次数字人流式会话的短期凭证。
type StreamingToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// CreateStreamingToken 为一次数字人流式会话签发短期凭证。
func (c *Client) CreateStreamingToken(ctx context.Context) (*StreamingToken, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/streaming.create_token")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data StreamingToken `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: 解析 HeyGen 令牌响应失败: %v", errs.ErrUpstream, err)
	}
	return &resp.Data, nil
}

// ListAvatars 返回可用的数字人形象列表（原样透传上游 JSON）。
func (c *Client) ListAvatars(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/v2/avatars")
}

// ListVoices 返回可用的声音列表（原样透传上游 JSON）。
func (c *Client) ListVoices(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/v2/voices")
}

func (c *Client) do(ctx context.Context, method, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 HeyGen 请求失败: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 调用 HeyGen 失败: %v", errs.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取 HeyGen 响应失败: %v", errs.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HeyGen 返回错误 [%d]: %s", errs.ErrUpstream, resp.StatusCode, string(body))
	}
	return body, nil
}
