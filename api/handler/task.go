package handler

import (
	"net/http"

	"github.com/fyerfyer/doc-lesson-system/api/middleware"
	"github.com/fyerfyer/doc-lesson-system/api/model"
	"github.com/fyerfyer/doc-lesson-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler 处理任务相关的API请求
type TaskHandler struct {
	queue  taskqueue.Queue // 任务队列
	logger *logrus.Logger  // 日志记录器
}

// NewTaskHandler 创建新的任务处理器
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{
		queue:  queue,
		logger: middleware.GetLogger(),
	}
}

// GetTaskStatus 获取任务状态
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		middleware.HandleError(c, middleware.NewValidationError("task id is required"))
		return
	}

	task, err := h.queue.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.logger.WithError(err).WithField("task_id", taskID).Debug("Failed to get task")
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskqueue.NewTaskInfo(task)))
}

// GetLessonTasks 获取课程相关的所有任务
// GET /api/lessons/:id/tasks
func (h *TaskHandler) GetLessonTasks(c *gin.Context) {
	var req model.LessonIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}

	tasks, err := h.queue.GetTasksByLesson(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithError(err).WithField("lesson_id", req.ID).Error("Failed to get lesson tasks")
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	infos := make([]*taskqueue.TaskInfo, 0, len(tasks))
	for _, task := range tasks {
		infos = append(infos, taskqueue.NewTaskInfo(task))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{
		"lesson_id": req.ID,
		"tasks":     infos,
	}))
}
