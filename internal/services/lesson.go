package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/cache"
	"github.com/fyerfyer/doc-lesson-system/internal/document"
	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/fyerfyer/doc-lesson-system/internal/repository"
	"github.com/fyerfyer/doc-lesson-system/pkg/storage"
	"github.com/fyerfyer/doc-lesson-system/pkg/taskqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxUploadSize 上传材料的默认大小上限（20MB）
const DefaultMaxUploadSize int64 = 20 << 20

// CreateLessonInput 创建课程的输入
// Topic 与 File 同时提供时使用 Topic
type CreateLessonInput struct {
	Title    string    // 课程标题
	Topic    string    // 直接输入的材料文本
	File     io.Reader // 上传的材料文件
	FileName string    // 上传文件名，用于选择解析器
}

// UpdateLessonInput 更新课程的输入，nil 字段保持不变
type UpdateLessonInput struct {
	Title  *string
	Slides []string
	Quiz   *string
}

// LessonStatusInfo 课程生成状态
type LessonStatusInfo struct {
	LessonID    string              `json:"lesson_id"`
	Status      models.LessonStatus `json:"status"`
	Error       string              `json:"error,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Task        *taskqueue.TaskInfo `json:"task,omitempty"`
}

// LessonService 课程服务
// 负责协调材料提取、课程生成、持久化和测验评分
type LessonService struct {
	pipeline      *lesson.Pipeline             // 课程生成管线
	storage       storage.Storage              // 源文件存储
	repo          repository.LessonRepository  // 课程仓储
	attempts      repository.AttemptRepository // 答题记录仓储
	statusManager *LessonStatusManager         // 课程状态管理器
	taskQueue     taskqueue.Queue              // 任务队列
	cache         cache.Cache                  // 课程详情缓存
	cacheTTL      time.Duration                // 缓存过期时间
	timeout       time.Duration                // 同步生成超时时间
	maxUploadSize int64                        // 上传文件大小上限
	logger        *logrus.Logger               // 日志记录器
}

// LessonOption 课程服务配置选项
type LessonOption func(*LessonService)

// NewLessonService 创建课程服务
func NewLessonService(pipeline *lesson.Pipeline, opts ...LessonOption) *LessonService {
	srv := &LessonService{
		pipeline:      pipeline,
		cacheTTL:      time.Hour,
		timeout:       time.Minute * 10,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) LessonOption {
	return func(s *LessonService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStorage 设置源文件存储
func WithStorage(st storage.Storage) LessonOption {
	return func(s *LessonService) {
		s.storage = st
	}
}

// WithLessonRepository 设置课程仓储
func WithLessonRepository(repo repository.LessonRepository) LessonOption {
	return func(s *LessonService) {
		s.repo = repo
	}
}

// WithAttemptRepository 设置答题记录仓储
func WithAttemptRepository(repo repository.AttemptRepository) LessonOption {
	return func(s *LessonService) {
		s.attempts = repo
	}
}

// WithTaskQueue 设置任务队列，设置后课程生成改为异步
func WithTaskQueue(queue taskqueue.Queue) LessonOption {
	return func(s *LessonService) {
		s.taskQueue = queue
	}
}

// WithCache 设置课程详情缓存
func WithCache(c cache.Cache, ttl time.Duration) LessonOption {
	return func(s *LessonService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithTimeout 设置同步生成的超时时间
func WithTimeout(timeout time.Duration) LessonOption {
	return func(s *LessonService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithMaxUploadSize 设置上传文件大小上限
func WithMaxUploadSize(size int64) LessonOption {
	return func(s *LessonService) {
		if size > 0 {
			s.maxUploadSize = size
		}
	}
}

// Init 初始化课程服务
// 未设置的仓储使用全局数据库连接创建
func (s *LessonService) Init() error {
	if s.pipeline == nil {
		return errors.New("lesson pipeline is required")
	}
	if s.repo == nil {
		s.repo = repository.NewLessonRepository()
	}
	if s.attempts == nil {
		s.attempts = repository.NewAttemptRepository()
	}
	if s.statusManager == nil {
		s.statusManager = NewLessonStatusManager(s.repo, s.logger)
	}
	return nil
}

// AsyncEnabled 是否通过任务队列生成课程
func (s *LessonService) AsyncEnabled() bool {
	return s.taskQueue != nil
}

// CreateLesson 创建课程
// 同步模式下生成失败不会保存任何记录；异步模式下返回 pending 状态的课程
func (s *LessonService) CreateLesson(ctx context.Context, in CreateLessonInput, userID string) (*models.Lesson, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("title", "title is required")
	}

	src, err := s.resolveSource(in)
	if err != nil {
		return nil, err
	}

	l := &models.Lesson{
		ID:          uuid.New().String(),
		Title:       title,
		SourceName:  src.name,
		SourcePages: src.pages,
		CreatedBy:   userID,
	}

	if src.data != nil && s.storage != nil {
		info, err := s.storage.Save(bytes.NewReader(src.data), src.name)
		if err != nil {
			return nil, fmt.Errorf("failed to save source file: %w", err)
		}
		l.SourceFileID = info.ID
	}

	s.logger.WithFields(logrus.Fields{
		"lesson_id": l.ID,
		"title":     title,
		"source":    src.name,
		"chars":     len(src.text),
		"async":     s.AsyncEnabled(),
	}).Info("Creating lesson")

	if s.AsyncEnabled() {
		return s.createLessonAsync(ctx, l, src.text, userID)
	}
	return s.createLessonSync(ctx, l, src.text)
}

// source 已提取的课程材料
type source struct {
	text  string
	name  string
	data  []byte
	pages int
}

// resolveSource 确定材料来源：优先使用文本输入，其次解析上传文件
func (s *LessonService) resolveSource(in CreateLessonInput) (*source, error) {
	if strings.TrimSpace(in.Topic) != "" {
		return &source{text: in.Topic}, nil
	}
	if in.File == nil {
		return nil, models.NewValidationError("content", "provide either text or file")
	}

	name := filepath.Base(in.FileName)
	if _, err := document.ParserFactory(name); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(in.File, s.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > s.maxUploadSize {
		return nil, models.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxUploadSize))
	}

	text, err := document.ExtractText(bytes.NewReader(data), name)
	if err != nil {
		return nil, err
	}

	src := &source{text: text, name: name, data: data}
	if document.DetectContentType(name) == document.PDF {
		if pages, err := document.PageCount(bytes.NewReader(data)); err == nil {
			src.pages = pages
		} else {
			s.logger.WithError(err).WithField("file", name).Warn("Failed to count PDF pages")
		}
	}
	return src, nil
}

// createLessonSync 在当前请求中直接生成课程
func (s *LessonService) createLessonSync(ctx context.Context, l *models.Lesson, content string) (*models.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	draft, err := s.pipeline.CreateLesson(ctx, l.Title, content)
	if err != nil {
		s.removeSource(l.SourceFileID)
		return nil, err
	}

	if err := applyDraft(l, draft); err != nil {
		s.removeSource(l.SourceFileID)
		return nil, err
	}

	// 调用方已放弃或超过期限时不保存结果
	if err := ctx.Err(); err != nil {
		s.removeSource(l.SourceFileID)
		s.logger.WithField("title", l.Title).Warn("Lesson build finished after the caller gave up, discarding result")
		return nil, fmt.Errorf("lesson build abandoned: %w", err)
	}

	now := time.Now()
	l.Status = models.LessonStatusCompleted
	l.CompletedAt = &now

	if err := s.repo.WithContext(ctx).Create(l); err != nil {
		s.removeSource(l.SourceFileID)
		return nil, fmt.Errorf("failed to save lesson: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"lesson_id": l.ID,
		"segments":  draft.SegmentCount,
		"slides":    len(draft.Slides),
		"requests":  draft.Requests,
	}).Info("Lesson created")

	return l, nil
}

// createLessonAsync 保存待生成的课程并把生成任务加入队列
func (s *LessonService) createLessonAsync(ctx context.Context, l *models.Lesson, content, userID string) (*models.Lesson, error) {
	l.Status = models.LessonStatusPending
	if err := s.repo.WithContext(ctx).Create(l); err != nil {
		s.removeSource(l.SourceFileID)
		return nil, fmt.Errorf("failed to save lesson: %w", err)
	}

	payload := taskqueue.LessonBuildPayload{
		LessonID:   l.ID,
		Title:      l.Title,
		Content:    content,
		SourceName: l.SourceName,
		UserID:     userID,
	}

	taskID, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskLessonBuild, l.ID, payload)
	if err != nil {
		msg := fmt.Sprintf("failed to enqueue lesson build: %v", err)
		if markErr := s.statusManager.MarkAsFailed(ctx, l.ID, msg); markErr != nil {
			s.logger.WithError(markErr).Error("Failed to mark lesson as failed")
		}
		return nil, fmt.Errorf("failed to enqueue lesson build: %w", err)
	}

	l.TaskID = taskID
	if err := s.repo.WithContext(ctx).Update(l); err != nil {
		s.logger.WithError(err).WithField("lesson_id", l.ID).Warn("Failed to record task ID")
	}

	s.logger.WithFields(logrus.Fields{
		"lesson_id": l.ID,
		"task_id":   taskID,
	}).Info("Lesson build task enqueued")

	return l, nil
}

// BuildLesson 为已保存的课程执行生成并写入结果
// 由异步任务处理器调用
func (s *LessonService) BuildLesson(ctx context.Context, lessonID, title, content string) (*lesson.Draft, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	if err := s.statusManager.MarkAsProcessing(ctx, lessonID); err != nil {
		return nil, err
	}
	defer s.invalidate(lessonID)

	draft, err := s.pipeline.CreateLesson(ctx, title, content)
	if err != nil {
		if markErr := s.statusManager.MarkAsFailed(ctx, lessonID, err.Error()); markErr != nil {
			s.logger.WithError(markErr).Error("Failed to mark lesson as failed")
		}
		return nil, err
	}

	if err := s.statusManager.MarkAsCompleted(ctx, lessonID, draft); err != nil {
		return nil, fmt.Errorf("failed to save generated lesson: %w", err)
	}
	return draft, nil
}

// GetLesson 获取课程详情，已完成的课程会被缓存
func (s *LessonService) GetLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	key := cache.LessonKey(lessonID)
	if s.cache != nil {
		var cached models.Lesson
		found, err := cache.GetJSON(s.cache, key, &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to read lesson cache")
		}
		if found {
			s.logger.WithField("lesson_id", lessonID).Debug("Lesson cache hit")
			return &cached, nil
		}
	}

	l, err := s.repo.WithContext(ctx).GetByID(lessonID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && l.Status == models.LessonStatusCompleted {
		if err := cache.SetJSON(s.cache, key, l, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to write lesson cache")
		}
	}
	return l, nil
}

// ListLessons 分页列出课程
func (s *LessonService) ListLessons(ctx context.Context, offset, limit int, filter repository.LessonFilter) ([]*models.Lesson, int64, error) {
	if err := s.Init(); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, models.NewValidationError("status", fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.repo.WithContext(ctx).List(offset, limit, filter)
}

// UpdateLesson 修改课程标题、幻灯片或测验
func (s *LessonService) UpdateLesson(ctx context.Context, lessonID string, in UpdateLessonInput) (*models.Lesson, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	repo := s.repo.WithContext(ctx)
	l, err := repo.GetByID(lessonID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("title", "title cannot be empty")
		}
		l.Title = title
	}
	if in.Slides != nil {
		if err := l.SetSlides(in.Slides); err != nil {
			return nil, fmt.Errorf("failed to encode slides: %w", err)
		}
	}
	if in.Quiz != nil {
		l.Quiz = *in.Quiz
	}

	if err := repo.Update(l); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	s.invalidate(lessonID)

	s.logger.WithField("lesson_id", lessonID).Info("Lesson updated")
	return l, nil
}

// DeleteLesson 删除课程，同时清理源文件、缓存、答题记录和排队中的任务
func (s *LessonService) DeleteLesson(ctx context.Context, lessonID string) error {
	if err := s.Init(); err != nil {
		return err
	}

	repo := s.repo.WithContext(ctx)
	l, err := repo.GetByID(lessonID)
	if err != nil {
		return err
	}

	if s.taskQueue != nil {
		tasks, err := s.taskQueue.GetTasksByLesson(ctx, lessonID)
		if err != nil {
			s.logger.WithError(err).WithField("lesson_id", lessonID).Warn("Failed to list lesson tasks")
		}
		for _, task := range tasks {
			if err := s.taskQueue.DeleteTask(ctx, task.ID); err != nil {
				s.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to delete lesson task")
			}
		}
	}

	if err := repo.Delete(lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.removeSource(l.SourceFileID)
	s.invalidate(lessonID)

	s.logger.WithField("lesson_id", lessonID).Info("Lesson deleted")
	return nil
}

// GetLessonStatus 获取课程生成状态及关联任务
func (s *LessonService) GetLessonStatus(ctx context.Context, lessonID string) (*LessonStatusInfo, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	l, err := s.repo.WithContext(ctx).GetByID(lessonID)
	if err != nil {
		return nil, err
	}

	info := &LessonStatusInfo{
		LessonID:    l.ID,
		Status:      l.Status,
		Error:       l.Error,
		CompletedAt: l.CompletedAt,
	}

	if s.taskQueue != nil && l.TaskID != "" {
		task, err := s.taskQueue.GetTask(ctx, l.TaskID)
		if err != nil {
			s.logger.WithError(err).WithField("task_id", l.TaskID).Debug("Task record unavailable")
		} else {
			info.Task = taskqueue.NewTaskInfo(task)
		}
	}
	return info, nil
}

// GradeLesson 为课程测验评分并保存答题记录
func (s *LessonService) GradeLesson(ctx context.Context, lessonID string, submission []lesson.QuestionSubmission, userID string) (*lesson.GradeReport, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	if _, err := s.repo.WithContext(ctx).GetByID(lessonID); err != nil {
		return nil, err
	}

	report, err := s.pipeline.GradeQuiz(ctx, submission)
	if err != nil {
		return nil, err
	}

	attempt := &models.QuizAttempt{
		LessonID:   lessonID,
		UserID:     userID,
		Score:      report.Score,
		Total:      report.Total,
		Percentage: report.Percentage,
		Feedback:   report.Feedback,
	}
	if err := attempt.SetResults(report.Results); err != nil {
		return nil, err
	}
	if err := s.attempts.Create(attempt); err != nil {
		// 评分已完成，记录失败不影响返回结果
		s.logger.WithError(err).WithField("lesson_id", lessonID).Error("Failed to save quiz attempt")
	}

	s.logger.WithFields(logrus.Fields{
		"lesson_id":  lessonID,
		"user_id":    userID,
		"score":      report.Score,
		"total":      report.Total,
		"percentage": report.Percentage,
	}).Info("Quiz graded")

	return report, nil
}

// ListAttempts 列出课程的答题记录
func (s *LessonService) ListAttempts(ctx context.Context, lessonID string, offset, limit int) ([]*models.QuizAttempt, int64, error) {
	if err := s.Init(); err != nil {
		return nil, 0, err
	}
	if _, err := s.repo.WithContext(ctx).GetByID(lessonID); err != nil {
		return nil, 0, err
	}
	return s.attempts.ListByLesson(lessonID, offset, limit)
}

// invalidate 清除课程缓存
func (s *LessonService) invalidate(lessonID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(cache.LessonKey(lessonID)); err != nil {
		s.logger.WithError(err).WithField("lesson_id", lessonID).Warn("Failed to invalidate lesson cache")
	}
}

// removeSource 删除源文件，文件不存在时忽略
func (s *LessonService) removeSource(fileID string) {
	if fileID == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(fileID); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		s.logger.WithError(err).WithField("file_id", fileID).Warn("Failed to delete source file")
	}
}
