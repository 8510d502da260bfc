package model

import (
	"mime/multipart"
)

// PaginationRequest 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// Offset 计算分页偏移量
func (p *PaginationRequest) Offset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// LessonIDRequest 课程ID路径参数
type LessonIDRequest struct {
	ID string `uri:"id" binding:"required"` // 课程ID
}

// LessonCreateRequest 创建课程请求
// topic 与 file 二选一，同时提供时使用 topic
type LessonCreateRequest struct {
	Title string                `form:"title" json:"title" binding:"required,max=200"` // 课程标题
	Topic string                `form:"topic" json:"topic"`                            // 材料文本
	File  *multipart.FileHeader `form:"file" json:"-"`                                 // 材料文件
}

// LessonListRequest 课程列表请求
type LessonListRequest struct {
	PaginationRequest
	Status string `form:"status" json:"status" binding:"omitempty,oneof=pending processing completed failed"` // 生成状态
	Title  string `form:"title" json:"title"`                                                                 // 标题模糊匹配
}

// LessonUpdateRequest 更新课程请求，省略的字段保持不变
type LessonUpdateRequest struct {
	Title  *string  `json:"title" binding:"omitempty,max=200"` // 课程标题
	Slides []string `json:"slides"`                            // 幻灯片文本
	Quiz   *string  `json:"quiz"`                              // 测验文本
}

// QuestionRequest 单题答案
type QuestionRequest struct {
	Question      string `json:"question"`      // 题目
	UserAnswer    string `json:"userAnswer"`    // 学生答案
	CorrectAnswer string `json:"correctAnswer"` // 正确答案
}

// GradeQuizRequest 测验评分请求
type GradeQuizRequest struct {
	Questions []QuestionRequest `json:"questions"` // 提交的题目与答案
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`  // 用户名
	Email     string `json:"email" binding:"required"`     // 邮箱
	Password  string `json:"password" binding:"required"`  // 密码
	Password2 string `json:"password2" binding:"required"` // 确认密码
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // 用户名
	Password string `json:"password" binding:"required"` // 密码
}
