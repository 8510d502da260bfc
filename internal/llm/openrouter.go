package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OpenRouterClient 基于 OpenAI 兼容接口的客户端
// 默认访问 OpenRouter，也可通过 BaseURL 指向任意兼容服务
type OpenRouterClient struct {
	cfg *Config
	llm *openai.LLM
}

// NewOpenRouterClient 创建 OpenRouter 客户端
func NewOpenRouterClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterURL
	}
	if cfg.Model == "" {
		cfg.Model = ModelGPT35Turbo
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, WrapError(err, ErrCodeInvalidRequest)
	}

	return &OpenRouterClient{cfg: cfg, llm: model}, nil
}

// Name 返回模型名称
func (c *OpenRouterClient) Name() string {
	return c.cfg.Model
}

// Generate 根据提示词生成文本
func (c *OpenRouterClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}
	return c.Chat(ctx, userMessages(prompt), options...)
}

// Chat 进行多轮对话
func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(toChatMessageType(m.Role), m.Content))
	}

	opts := resolveOptions(c.cfg, options)
	var callOpts []llms.CallOption
	if opts.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(float64(*opts.Temperature)))
	}
	if opts.TopP != nil {
		callOpts = append(callOpts, llms.WithTopP(float64(*opts.TopP)))
	}
	if opts.MaxTokens != nil {
		callOpts = append(callOpts, llms.WithMaxTokens(*opts.MaxTokens))
	}

	var resp *llms.ContentResponse
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(ctx.Err(), ErrCodeTimeout)
			case <-time.After(time.Duration(1<<attempt) * 100 * time.Millisecond):
			}
		}
		resp, err = c.llm.GenerateContent(ctx, content, callOpts...)
		if err == nil {
			break
		}
		err = mapOpenAIError(err)
		if !Retryable(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, NewLLMError(ErrCodeEmptyResponse, ErrMsgEmptyResponse)
	}
	choice := resp.Choices[0]

	result := &Response{
		Text:       choice.Content,
		ModelName:  c.cfg.Model,
		FinishTime: time.Now(),
	}
	if total, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
		result.TokenCount = total
	}
	return result, nil
}

func toChatMessageType(role MessageRole) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

// mapOpenAIError 将 langchaingo 返回的错误映射为错误码
func mapOpenAIError(err error) error {
	if errors.Is(err, openai.ErrEmptyResponse) {
		return NewLLMError(ErrCodeEmptyResponse, ErrMsgEmptyResponse)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WrapError(err, ErrCodeTimeout)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "status code: 401"), strings.Contains(msg, "status code: 403"):
		return NewLLMError(ErrCodeInvalidAPIKey, msg)
	case strings.Contains(msg, "status code: 429"):
		return NewLLMError(ErrCodeRateLimited, msg)
	case strings.Contains(msg, "status code: 5"):
		return NewLLMError(ErrCodeServerError, msg)
	case strings.Contains(msg, "status code"):
		return NewLLMError(ErrCodeInvalidRequest, msg)
	default:
		return NewLLMError(ErrCodeNetworkError, fmt.Sprintf("%s: %v", ErrMsgNetworkError, err))
	}
}

func init() {
	RegisterClient("openrouter", NewOpenRouterClient)
	RegisterClient("openai", NewOpenRouterClient)
}
