// Package ollama 封装与本地推理后端的全部交互：主/回退两种端点形态、
// 响应归一化、文本清洗，以及活动模型的原子切换。
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"textlens/internal/config"
	"textlens/internal/pkg/apperr"
	"textlens/internal/prompt"

	"github.com/tidwall/gjson"
)

const (
	connectFailedMessage = "Cannot connect to Ollama. Make sure Ollama is running at the configured host."
	timeoutMessage       = "Request to Ollama timed out. The image processing is taking too long."

	// 健康检查不占用推理超时预算
	pingTimeout = 5 * time.Second

	// 标签拉取要传回完整模型清单，窗口比健康检查宽
	tagsTimeout = 10 * time.Second
)

// Client 面向单个 Ollama 后端。活动模型通过原子指针交换，
// 读路径无锁：每个请求在编排开始时读取一次快照，之后的切换不影响它。
type Client struct {
	baseURL string
	timeout time.Duration
	prompts prompt.Prompts

	model atomic.Pointer[string]
	httpc *http.Client
}

// NewClient 构造客户端；超时按次生效，不做跨调用累计。
func NewClient(cfg config.OllamaConfig, prompts prompt.Prompts) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.Host), "/"),
		timeout: cfg.RequestTimeout(),
		prompts: prompts,
		httpc:   &http.Client{},
	}
	model := strings.TrimSpace(cfg.Model)
	c.model.Store(&model)
	return c
}

// ActiveModel 返回当前活动模型。
func (c *Client) ActiveModel() string {
	return *c.model.Load()
}

// SetModel 原子切换活动模型；进行中的请求继续使用各自开始时读到的值。
func (c *Client) SetModel(name string) {
	name = strings.TrimSpace(name)
	c.model.Store(&name)
}

// Host 返回后端基地址。
func (c *Client) Host() string {
	return c.baseURL
}

// Ping 探测后端连通性（GET /api/tags，短超时）。
func (c *Client) Ping(ctx context.Context) bool {
	body, err := c.get(ctx, "/api/tags", pingTimeout)
	return err == nil && body != nil
}

// ListTags 返回后端已安装模型名列表。
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/api/tags", tagsTimeout)
	if err != nil {
		return nil, err
	}
	names := gjson.GetBytes(body, "models.#.name")
	out := make([]string, 0, 8)
	names.ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out, nil
}

// endpointMissingError 标记「端点本身不存在」的裸 404，触发回退形态。
type endpointMissingError struct {
	path string
	body string
}

func (e *endpointMissingError) Error() string {
	return fmt.Sprintf("endpoint %s not found: %s", e.path, e.body)
}

// post 发送一次推理请求。超时窗口从调用进入时起算；
// 入站调用方断开时 ctx 被取消，上游连接随之关闭。
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError(ctx, callCtx, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		if bytes.Contains(bytes.ToLower(body), []byte("model")) {
			return nil, apperr.ModelNotFound(c.ActiveModel())
		}
		return nil, &endpointMissingError{path: path, body: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 状态码和原文一并带出，便于运维定位
		return nil, apperr.UpstreamUnavailable("Ollama returned HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.UpstreamUnavailable("Ollama returned HTTP %d on %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

// classifyTransportError 区分三种传输失败：调用方主动取消、超时、连接失败。
func (c *Client) classifyTransportError(parent, call context.Context, err error) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		// 入站请求已断开，按原样上抛，由边界静默处理
		return parent.Err()
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.UpstreamTimeout(timeoutMessage)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.UpstreamTimeout(timeoutMessage)
	}
	return apperr.UpstreamUnavailable(connectFailedMessage)
}
