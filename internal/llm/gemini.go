package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient Google Gemini 客户端实现
type GeminiClient struct {
	cfg    *Config
	client *genai.Client
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = ModelGeminiFlash
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(context.Background(), clientOpts...)
	if err != nil {
		return nil, WrapError(err, ErrCodeInvalidRequest)
	}

	return &GeminiClient{cfg: cfg, client: client}, nil
}

// Name 返回模型名称
func (c *GeminiClient) Name() string {
	return c.cfg.Model
}

// Close 释放底层连接
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate 根据提示词生成文本
func (c *GeminiClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}
	return c.Chat(ctx, userMessages(prompt), options...)
}

// Chat 进行多轮对话，最后一条消息作为本轮输入
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	model := c.newModel(resolveOptions(c.cfg, options))

	session := model.StartChat()
	var system []string
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			session.History = append(session.History, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			session.History = append(session.History, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	resp, err := session.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, NewLLMError(ErrCodeContentFilter, ErrMsgContentFilter)
		}
		return nil, WrapError(err, ErrCodeServerError)
	}

	text := geminiText(resp)
	if text == "" {
		return nil, NewLLMError(ErrCodeEmptyResponse, ErrMsgEmptyResponse)
	}

	result := &Response{
		Text:       text,
		ModelName:  c.cfg.Model,
		FinishTime: time.Now(),
	}
	if resp.UsageMetadata != nil {
		result.TokenCount = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

func (c *GeminiClient) newModel(opts GenerateOptions) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.cfg.Model)
	if opts.Temperature != nil {
		model.SetTemperature(*opts.Temperature)
	}
	if opts.TopP != nil {
		model.SetTopP(*opts.TopP)
	}
	if opts.MaxTokens != nil {
		model.SetMaxOutputTokens(int32(*opts.MaxTokens))
	}
	return model
}

// geminiText 拼接第一个候选结果中的文本片段
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func init() {
	RegisterClient("gemini", NewGeminiClient)
}
