package services

import (
	"context"
	"fmt"

	"github.com/fyerfyer/doc-lesson-system/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// LessonBuildHandler 课程生成任务处理器
type LessonBuildHandler struct {
	service *LessonService
	logger  *logrus.Logger
}

// NewLessonBuildHandler 创建课程生成任务处理器
func NewLessonBuildHandler(service *LessonService) *LessonBuildHandler {
	return &LessonBuildHandler{
		service: service,
		logger:  service.logger,
	}
}

// GetTaskTypes 返回支持的任务类型
func (h *LessonBuildHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskLessonBuild}
}

// ProcessTask 执行课程生成
func (h *LessonBuildHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) (interface{}, error) {
	var payload taskqueue.LessonBuildPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse lesson build payload: %w", err)
	}
	if payload.LessonID == "" {
		payload.LessonID = task.LessonID
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"lesson_id": payload.LessonID,
		"source":    payload.SourceName,
	}).Info("Processing lesson build task")

	result := &taskqueue.LessonBuildResult{LessonID: payload.LessonID}

	draft, err := h.service.BuildLesson(ctx, payload.LessonID, payload.Title, payload.Content)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.SegmentCount = draft.SegmentCount
	result.SlideCount = len(draft.Slides)
	result.Requests = draft.Requests
	return result, nil
}
