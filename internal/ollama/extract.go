package ollama

import (
	"context"
	"errors"

	"textlens/internal/logger"
	"textlens/internal/pkg/apperr"

	"github.com/tidwall/gjson"
)

// 两次后端调用严格串行，回退只在主端点明确返回「端点不存在」时发生，
// 且最多一次。显式状态机保证该契约可审计、可单测。
type extractState int

const (
	stateTryPrimary extractState = iota
	stateTryFallback
	stateNormalize
)

type responseShape int

const (
	shapeChat responseShape = iota
	shapeGenerate
)

// Extract 把 base64 图像交给后端做文本提取。
// 活动模型在进入时读取一次，之后的切换不影响本次请求。
func (c *Client) Extract(ctx context.Context, base64Image string) (*ExtractResult, error) {
	model := c.ActiveModel()

	state := stateTryPrimary
	var body []byte
	var shape responseShape
	for {
		switch state {
		case stateTryPrimary:
			b, err := c.post(ctx, "/api/chat", c.chatPayload(model, base64Image))
			if err != nil {
				var missing *endpointMissingError
				if errors.As(err, &missing) {
					logger.Debugf("/api/chat unsupported by backend, falling back to /api/generate: %v", missing)
					state = stateTryFallback
					continue
				}
				return nil, err
			}
			body, shape = b, shapeChat
			state = stateNormalize

		case stateTryFallback:
			b, err := c.post(ctx, "/api/generate", c.generatePayload(model, base64Image))
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil, err
				}
				// 回退自身的失败细节只进 debug 日志，对外保持复合消息
				logger.Debugf("/api/generate fallback failed: %v", err)
				return nil, apperr.UpstreamUnavailable(
					"Both /api/chat and /api/generate endpoints failed. "+
						"Make sure Ollama is running and the model '%s' is available.", model)
			}
			body, shape = b, shapeGenerate
			state = stateNormalize

		case stateNormalize:
			return c.normalize(body, shape, model), nil
		}
	}
}

func (c *Client) chatPayload(model, base64Image string) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompts.System},
			{Role: "user", Content: c.prompts.User, Images: []string{base64Image}},
		},
		Stream: false,
	}
}

func (c *Client) generatePayload(model, base64Image string) generateRequest {
	return generateRequest{
		Model:  model,
		Prompt: c.prompts.User,
		Images: []string{base64Image},
		Stream: false,
	}
}

// normalize 从形态对应的字段提取正文与用量，清洗后组装结果。
// usage 整体缺失时省略；存在时缺失的计数记 0，永不因此报错。
func (c *Client) normalize(body []byte, shape responseShape, model string) *ExtractResult {
	var raw string
	switch shape {
	case shapeChat:
		raw = gjson.GetBytes(body, "message.content").String()
		logger.LogModelReply("/api/chat", model, raw)
	case shapeGenerate:
		raw = gjson.GetBytes(body, "response").String()
		logger.LogModelReply("/api/generate", model, raw)
	}

	var usage *TokenUsage
	if u := gjson.GetBytes(body, "usage"); u.Exists() && u.IsObject() {
		usage = &TokenUsage{
			PromptTokens:     int(u.Get("prompt_tokens").Int()),
			CompletionTokens: int(u.Get("completion_tokens").Int()),
			TotalTokens:      int(u.Get("total_tokens").Int()),
		}
	}

	return &ExtractResult{
		Text:  CleanText(raw),
		Model: model,
		Usage: usage,
	}
}
