package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/fyerfyer/doc-lesson-system/internal/repository"
	"github.com/sirupsen/logrus"
)

// validTransitions 课程状态的合法转换
var validTransitions = map[models.LessonStatus][]models.LessonStatus{
	models.LessonStatusPending: {
		models.LessonStatusProcessing,
		models.LessonStatusFailed, // 入队失败
	},
	models.LessonStatusProcessing: {
		models.LessonStatusCompleted,
		models.LessonStatusFailed,
	},
	// 终态
	models.LessonStatusCompleted: {},
	models.LessonStatusFailed:    {models.LessonStatusProcessing}, // 允许重新生成
}

// LessonStatusManager 课程状态管理器
// 负责管理异步生成课程的生命周期状态
type LessonStatusManager struct {
	repo   repository.LessonRepository // 课程仓储接口
	logger *logrus.Logger              // 日志记录器
	mu     sync.Mutex                  // 互斥锁，保证状态转换的原子性
}

// NewLessonStatusManager 创建课程状态管理器
func NewLessonStatusManager(repo repository.LessonRepository, logger *logrus.Logger) *LessonStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &LessonStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// MarkAsProcessing 将课程标记为生成中
func (m *LessonStatusManager) MarkAsProcessing(ctx context.Context, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.repo.GetByID(lessonID)
	if err != nil {
		return fmt.Errorf("failed to get lesson: %w", err)
	}

	if err := ValidateStateTransition(l.Status, models.LessonStatusProcessing); err != nil {
		return fmt.Errorf("lesson %s: %w", lessonID, err)
	}

	m.logger.WithField("lesson_id", lessonID).Info("Marking lesson as processing")

	return m.repo.UpdateStatus(lessonID, models.LessonStatusProcessing, "")
}

// MarkAsCompleted 写入生成结果并标记为完成
func (m *LessonStatusManager) MarkAsCompleted(ctx context.Context, lessonID string, draft *lesson.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.repo.GetByID(lessonID)
	if err != nil {
		return fmt.Errorf("failed to get lesson: %w", err)
	}

	if err := ValidateStateTransition(l.Status, models.LessonStatusCompleted); err != nil {
		return fmt.Errorf("lesson %s: %w", lessonID, err)
	}

	m.logger.WithFields(logrus.Fields{
		"lesson_id":     lessonID,
		"segment_count": draft.SegmentCount,
		"slides":        len(draft.Slides),
	}).Info("Marking lesson as completed")

	if err := applyDraft(l, draft); err != nil {
		return err
	}
	now := time.Now()
	l.Status = models.LessonStatusCompleted
	l.Error = ""
	l.CompletedAt = &now

	return m.repo.Update(l)
}

// MarkAsFailed 将课程标记为生成失败
func (m *LessonStatusManager) MarkAsFailed(ctx context.Context, lessonID string, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.repo.GetByID(lessonID)
	if err != nil {
		return fmt.Errorf("failed to get lesson: %w", err)
	}

	if err := ValidateStateTransition(l.Status, models.LessonStatusFailed); err != nil {
		return fmt.Errorf("lesson %s: %w", lessonID, err)
	}

	m.logger.WithFields(logrus.Fields{
		"lesson_id": lessonID,
		"error":     errorMsg,
	}).Error("Marking lesson as failed")

	return m.repo.UpdateStatus(lessonID, models.LessonStatusFailed, errorMsg)
}

// GetStatus 获取课程当前状态
func (m *LessonStatusManager) GetStatus(ctx context.Context, lessonID string) (models.LessonStatus, error) {
	l, err := m.repo.GetByID(lessonID)
	if err != nil {
		return "", fmt.Errorf("failed to get lesson status: %w", err)
	}
	return l.Status, nil
}

// ValidateStateTransition 验证状态转换的有效性
func ValidateStateTransition(from, to models.LessonStatus) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", models.ErrInvalidLessonStatus, from, to)
}

// applyDraft 把生成结果写入课程记录
func applyDraft(l *models.Lesson, draft *lesson.Draft) error {
	if err := l.SetSlides(draft.Slides); err != nil {
		return fmt.Errorf("failed to encode slides: %w", err)
	}
	l.Quiz = draft.Quiz
	l.UnifiedText = draft.UnifiedText
	l.SegmentCount = draft.SegmentCount
	return nil
}
