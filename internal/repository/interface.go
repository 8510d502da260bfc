package repository

import (
	"context"

	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

// LessonFilter 课程列表筛选条件
type LessonFilter struct {
	Status    models.LessonStatus // 按状态筛选
	Title     string              // 标题模糊匹配
	CreatedBy string              // 按创建者筛选
}

// LessonRepository 课程仓储接口
// 负责课程记录的存储和检索
type LessonRepository interface {
	// Create 创建课程记录
	Create(lesson *models.Lesson) error

	// Update 更新课程记录
	Update(lesson *models.Lesson) error

	// GetByID 根据ID获取课程
	GetByID(id string) (*models.Lesson, error)

	// List 列出课程列表，支持分页和筛选
	List(offset, limit int, filter LessonFilter) ([]*models.Lesson, int64, error)

	// Delete 删除课程及其答题记录
	Delete(id string) error

	// UpdateStatus 更新课程状态
	UpdateStatus(id string, status models.LessonStatus, errorMsg string) error

	// WithContext 返回绑定上下文的仓储
	WithContext(ctx context.Context) LessonRepository
}

// AttemptRepository 答题记录仓储接口
type AttemptRepository interface {
	// Create 保存一次答题记录
	Create(attempt *models.QuizAttempt) error

	// ListByLesson 按时间倒序列出课程的答题记录
	ListByLesson(lessonID string, offset, limit int) ([]*models.QuizAttempt, int64, error)

	// DeleteByLesson 删除课程的所有答题记录
	DeleteByLesson(lessonID string) error
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户，用户名或邮箱重复时返回 ErrUserExists
	Create(user *models.User) error

	// GetByID 根据ID获取用户
	GetByID(id string) (*models.User, error)

	// GetByUsername 根据用户名获取用户
	GetByUsername(username string) (*models.User, error)

	// UpdateLastLogin 记录最近登录时间
	UpdateLastLogin(id string) error
}
