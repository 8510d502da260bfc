package repository

import (
	"errors"

	"github.com/fyerfyer/doc-lesson-system/internal/database"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"gorm.io/gorm"
)

// attemptRepository 答题记录仓储实现
type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository 创建答题记录仓储实例
func NewAttemptRepository() AttemptRepository {
	return &attemptRepository{db: database.MustDB()}
}

// NewAttemptRepositoryWithDB 使用指定的数据库连接创建答题记录仓储实例
func NewAttemptRepositoryWithDB(db *gorm.DB) AttemptRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &attemptRepository{db: db}
}

// Create 保存一次答题记录
func (r *attemptRepository) Create(attempt *models.QuizAttempt) error {
	if attempt.LessonID == "" {
		return errors.New("lesson ID cannot be empty")
	}
	return r.db.Create(attempt).Error
}

// ListByLesson 按时间倒序列出课程的答题记录
func (r *attemptRepository) ListByLesson(lessonID string, offset, limit int) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := r.db.Model(&models.QuizAttempt{}).Where("lesson_id = ?", lessonID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// DeleteByLesson 删除课程的所有答题记录
func (r *attemptRepository) DeleteByLesson(lessonID string) error {
	return r.db.Where("lesson_id = ?", lessonID).Delete(&models.QuizAttempt{}).Error
}
