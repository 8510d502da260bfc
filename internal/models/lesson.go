package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonStatus 课程生成状态类型
type LessonStatus string

const (
	// LessonStatusPending 课程已创建，等待生成
	LessonStatusPending LessonStatus = "pending"
	// LessonStatusProcessing 课程生成中
	LessonStatusProcessing LessonStatus = "processing"
	// LessonStatusCompleted 课程生成完成
	LessonStatusCompleted LessonStatus = "completed"
	// LessonStatusFailed 课程生成失败
	LessonStatusFailed LessonStatus = "failed"
)

// IsValid 检查状态值是否合法
func (s LessonStatus) IsValid() bool {
	switch s {
	case LessonStatusPending, LessonStatusProcessing, LessonStatusCompleted, LessonStatusFailed:
		return true
	}
	return false
}

// Lesson 课程数据模型
// 保存简化后的课程文本、幻灯片与测验
type Lesson struct {
	ID           string         `gorm:"primaryKey"`             // 课程ID，主键
	Title        string         `gorm:"size:200;not null"`      // 课程标题
	Slides       datatypes.JSON `gorm:"column:topic;type:json"` // 幻灯片文本列表，JSON数组
	Quiz         string         `gorm:"type:text"`              // 测验文本
	UnifiedText  string         `gorm:"type:text"`              // 统一改写后的课程文本
	SegmentCount int            `gorm:"not null;default:0"`     // 改写时切分的片段数量
	Status       LessonStatus   `gorm:"size:20;not null;index"` // 生成状态
	Error        string         `gorm:"type:text"`              // 错误信息
	SourceFileID string         `gorm:"size:100"`               // 源文件在存储中的ID
	SourceName   string         `gorm:"size:255"`               // 源文件名
	SourcePages  int            `gorm:"default:0"`              // 源PDF页数
	TaskID       string         `gorm:"size:50;index"`          // 当前关联的任务ID
	CreatedBy    string         `gorm:"size:50;index"`          // 创建者用户ID
	CreatedAt    time.Time      `gorm:"not null;index"`         // 创建时间
	UpdatedAt    time.Time      `gorm:"not null"`               // 更新时间
	CompletedAt  *time.Time     `gorm:"index"`                  // 生成完成时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (l *Lesson) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = LessonStatusPending
	}
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (l *Lesson) BeforeUpdate(tx *gorm.DB) (err error) {
	l.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Lesson) TableName() string {
	return "lessons"
}

// SlideList 解析幻灯片列表
func (l *Lesson) SlideList() []string {
	if len(l.Slides) == 0 {
		return []string{}
	}
	var slides []string
	if err := json.Unmarshal(l.Slides, &slides); err != nil {
		return []string{}
	}
	return slides
}

// SetSlides 设置幻灯片列表
func (l *Lesson) SetSlides(slides []string) error {
	if slides == nil {
		slides = []string{}
	}
	data, err := json.Marshal(slides)
	if err != nil {
		return err
	}
	l.Slides = datatypes.JSON(data)
	return nil
}

// QuizAttempt 测验答题记录
type QuizAttempt struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"` // 主键ID
	LessonID   string         `gorm:"not null;index"`           // 所属课程ID
	UserID     string         `gorm:"size:50;index"`            // 答题用户ID
	Score      int            `gorm:"not null"`                 // 答对题数
	Total      int            `gorm:"not null"`                 // 题目总数
	Percentage float64        `gorm:"not null"`                 // 正确率（保留一位小数）
	Feedback   string         `gorm:"type:text"`                // 反馈文本
	Results    datatypes.JSON `gorm:"type:json"`                // 每题评分结果
	CreatedAt  time.Time      `gorm:"not null;index"`           // 答题时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) (err error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return nil
}

// TableName 明确指定表名
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// SetResults 序列化每题评分结果
func (a *QuizAttempt) SetResults(results interface{}) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	a.Results = datatypes.JSON(data)
	return nil
}
