package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/database"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"gorm.io/gorm"
)

// lessonRepository 课程仓储实现
type lessonRepository struct {
	db *gorm.DB // 数据库连接
}

// NewLessonRepository 创建课程仓储实例
func NewLessonRepository() LessonRepository {
	return &lessonRepository{db: database.MustDB()}
}

// NewLessonRepositoryWithDB 使用指定的数据库连接创建课程仓储实例
func NewLessonRepositoryWithDB(db *gorm.DB) LessonRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &lessonRepository{db: db}
}

// Create 创建课程记录
func (r *lessonRepository) Create(lesson *models.Lesson) error {
	if lesson.ID == "" {
		return errors.New("lesson ID cannot be empty")
	}
	return r.db.Create(lesson).Error
}

// Update 更新课程记录
func (r *lessonRepository) Update(lesson *models.Lesson) error {
	if lesson.ID == "" {
		return errors.New("lesson ID cannot be empty")
	}
	return r.db.Save(lesson).Error
}

// GetByID 根据ID获取课程
func (r *lessonRepository) GetByID(id string) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.Where("id = ?", id).First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// List 列出课程列表，按创建时间倒序
func (r *lessonRepository) List(offset, limit int, filter LessonFilter) ([]*models.Lesson, int64, error) {
	var lessons []*models.Lesson
	var total int64

	query := r.db.Model(&models.Lesson{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Title != "" {
		query = query.Where("title LIKE ?", "%"+filter.Title+"%")
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&lessons).Error
	if err != nil {
		return nil, 0, err
	}

	return lessons, total, nil
}

// Delete 删除课程记录及其答题记录
func (r *lessonRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Lesson{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrLessonNotFound
		}
		return nil
	})
}

// UpdateStatus 更新课程状态
func (r *lessonRepository) UpdateStatus(id string, status models.LessonStatus, errorMsg string) error {
	if !status.IsValid() {
		return models.ErrInvalidLessonStatus
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}

	// 如果有错误消息，更新错误字段
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	// 生成结束时记录完成时间
	if status == models.LessonStatusCompleted || status == models.LessonStatusFailed {
		updates["completed_at"] = &now
	}

	result := r.db.Model(&models.Lesson{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrLessonNotFound
	}
	return nil
}

// WithContext 创建带有上下文的仓储
func (r *lessonRepository) WithContext(ctx context.Context) LessonRepository {
	return &lessonRepository{db: r.db.WithContext(ctx)}
}
