package model

import (
	"encoding/json"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// LessonResponse 课程详情
type LessonResponse struct {
	ID           string     `json:"id"`                     // 课程ID
	Title        string     `json:"title"`                  // 标题
	Topic        []string   `json:"topic"`                  // 幻灯片文本
	Quiz         string     `json:"quiz"`                   // 测验文本
	Status       string     `json:"status"`                 // 生成状态
	Error        string     `json:"error,omitempty"`        // 错误信息
	SegmentCount int        `json:"segment_count"`          // 改写片段数量
	SourceName   string     `json:"source_name,omitempty"`  // 源文件名
	SourcePages  int        `json:"source_pages,omitempty"` // 源PDF页数
	TaskID       string     `json:"task_id,omitempty"`      // 生成任务ID
	CreatedBy    string     `json:"created_by"`             // 创建者
	CreatedAt    time.Time  `json:"created_at"`             // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`             // 更新时间
	CompletedAt  *time.Time `json:"completed_at,omitempty"` // 完成时间
}

// NewLessonResponse 转换课程模型
func NewLessonResponse(l *models.Lesson) LessonResponse {
	return LessonResponse{
		ID:           l.ID,
		Title:        l.Title,
		Topic:        l.SlideList(),
		Quiz:         l.Quiz,
		Status:       string(l.Status),
		Error:        l.Error,
		SegmentCount: l.SegmentCount,
		SourceName:   l.SourceName,
		SourcePages:  l.SourcePages,
		TaskID:       l.TaskID,
		CreatedBy:    l.CreatedBy,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		CompletedAt:  l.CompletedAt,
	}
}

// LessonListResponse 课程列表响应
type LessonListResponse struct {
	PaginationResponse
	Lessons []LessonResponse `json:"lessons"` // 课程列表
}

// DeleteResponse 删除响应
type DeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	ID      string `json:"id"`      // 资源ID
}

// AttemptResponse 答题记录
type AttemptResponse struct {
	ID         uint            `json:"id"`                        // 记录ID
	LessonID   string          `json:"lesson_id"`                 // 课程ID
	UserID     string          `json:"user_id"`                   // 答题用户
	Score      int             `json:"score"`                     // 答对题数
	Total      int             `json:"totalQuestions"`            // 题目总数
	Percentage float64         `json:"percentage"`                // 正确率
	Feedback   string          `json:"feedback"`                  // 反馈
	Results    json.RawMessage `json:"questionResults,omitempty"` // 每题结果
	CreatedAt  time.Time       `json:"created_at"`                // 答题时间
}

// NewAttemptResponse 转换答题记录
func NewAttemptResponse(a *models.QuizAttempt) AttemptResponse {
	return AttemptResponse{
		ID:         a.ID,
		LessonID:   a.LessonID,
		UserID:     a.UserID,
		Score:      a.Score,
		Total:      a.Total,
		Percentage: a.Percentage,
		Feedback:   a.Feedback,
		Results:    json.RawMessage(a.Results),
		CreatedAt:  a.CreatedAt,
	}
}

// AttemptListResponse 答题记录列表响应
type AttemptListResponse struct {
	PaginationResponse
	Attempts []AttemptResponse `json:"attempts"` // 答题记录
}

// UserResponse 用户信息
type UserResponse struct {
	ID          string     `json:"id"`                      // 用户ID
	Username    string     `json:"username"`                // 用户名
	Email       string     `json:"email"`                   // 邮箱
	CreatedAt   time.Time  `json:"created_at"`              // 注册时间
	LastLoginAt *time.Time `json:"last_login_at,omitempty"` // 最近登录
}

// NewUserResponse 转换用户模型，不包含密码哈希
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string       `json:"token"`      // 访问令牌
	TokenType string       `json:"token_type"` // 令牌类型
	ExpiresAt time.Time    `json:"expires_at"` // 过期时间
	User      UserResponse `json:"user"`       // 用户信息
}

// PaginationResponse 分页响应信息
type PaginationResponse struct {
	Total    int64 `json:"total"`     // 总记录数
	Page     int   `json:"page"`      // 当前页码
	PageSize int   `json:"page_size"` // 每页大小
}
