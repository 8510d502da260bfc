package llm

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleAssistant 助手角色
	RoleAssistant MessageRole = "assistant"
)

// Message 对话消息结构
type Message struct {
	Role    MessageRole `json:"role"`    // 角色
	Content string      `json:"content"` // 内容
}

// Response 统一的响应结构
type Response struct {
	Text       string    // 生成的文本
	TokenCount int       // 使用的token数
	ModelName  string    // 使用的模型名称
	FinishTime time.Time // 完成时间
}

// 常用模型名称
const (
	ModelGPT35Turbo  = "openai/gpt-3.5-turbo" // OpenRouter 上的 GPT-3.5，默认模型
	ModelGPT4oMini   = "openai/gpt-4o-mini"   // OpenRouter 上的 GPT-4o mini
	ModelQwenTurbo   = "qwen-turbo"           // 通义千问-Turbo模型
	ModelQwenPlus    = "qwen-plus"            // 通义千问-Plus模型
	ModelQwenLong    = "qwen-long"            // 通义千问-Long模型（支持长上下文）
	ModelGeminiFlash = "gemini-1.5-flash"     // Gemini Flash
	ModelGeminiPro   = "gemini-1.5-pro"       // Gemini Pro
)

// DefaultOpenRouterURL OpenRouter 的 OpenAI 兼容接口地址
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// userMessages 将单个提示词包装为对话消息
func userMessages(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}
