package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskLessonBuild 课程生成任务：改写材料、切分幻灯片并生成测验
	TaskLessonBuild TaskType = "lesson_build"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// IsTerminal 判断任务是否已结束
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	LessonID    string          `json:"lesson_id"`    // 关联的课程ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据，不同任务类型对应不同结构
	Result      json.RawMessage `json:"result"`       // 任务结果数据，不同任务类型对应不同结构
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// LessonBuildPayload 课程生成任务载荷
// 材料文本在入队前已经提取完成
type LessonBuildPayload struct {
	LessonID   string `json:"lesson_id"`   // 课程ID
	Title      string `json:"title"`       // 课程标题
	Content    string `json:"content"`     // 原始材料文本
	SourceName string `json:"source_name"` // 源文件名，文本输入时为空
	UserID     string `json:"user_id"`     // 创建者用户ID
}

// LessonBuildResult 课程生成任务结果
type LessonBuildResult struct {
	LessonID     string `json:"lesson_id"`     // 课程ID
	SegmentCount int    `json:"segment_count"` // 改写时切分的片段数量
	SlideCount   int    `json:"slide_count"`   // 幻灯片数量
	Requests     int    `json:"requests"`      // 生成请求数量
	Error        string `json:"error"`         // 错误信息（如果有）
}

// TaskInfo 返回给客户端的任务信息
type TaskInfo struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	LessonID    string          `json:"lesson_id"`
	Status      TaskStatus      `json:"status"`
	Error       string          `json:"error"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Progress    float64         `json:"progress"` // 0-100
}

// NewTaskInfo 从Task创建TaskInfo
func NewTaskInfo(task *Task) *TaskInfo {
	info := &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		LessonID:    task.LessonID,
		Status:      task.Status,
		Error:       task.Error,
		Result:      task.Result,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
	// 生成请求按顺序执行，处理中只能给出粗略进度
	switch task.Status {
	case StatusProcessing:
		info.Progress = 50
	case StatusCompleted:
		info.Progress = 100
	}
	return info
}

// TaskError 任务错误类型
type TaskError string

func (e TaskError) Error() string {
	return string(e)
}

const (
	ErrTaskNotFound   = TaskError("task not found")
	ErrTaskTimeout    = TaskError("task timed out")
	ErrInvalidPayload = TaskError("invalid task payload")
)
