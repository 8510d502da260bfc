package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/fyerfyer/doc-lesson-system/api/middleware"
	"github.com/fyerfyer/doc-lesson-system/api/model"
	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/fyerfyer/doc-lesson-system/internal/repository"
	"github.com/fyerfyer/doc-lesson-system/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LessonHandler 处理课程相关的API请求
type LessonHandler struct {
	lessonService *services.LessonService // 课程服务
	logger        *logrus.Logger          // 日志记录器
}

// NewLessonHandler 创建新的课程处理器
func NewLessonHandler(lessonService *services.LessonService) *LessonHandler {
	return &LessonHandler{
		lessonService: lessonService,
		logger:        middleware.GetLogger(),
	}
}

// CreateLesson 创建课程
// POST /api/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req model.LessonCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid lesson create request")
		middleware.HandleError(c, middleware.NewValidationError("invalid request parameters", err.Error()))
		return
	}

	in := services.CreateLessonInput{
		Title: req.Title,
		Topic: req.Topic,
	}
	if req.File != nil {
		file, err := req.File.Open()
		if err != nil {
			h.logger.WithError(err).WithField("filename", req.File.Filename).Error("Failed to open uploaded file")
			middleware.HandleError(c, middleware.NewInternalError("failed to open uploaded file", err.Error()))
			return
		}
		defer file.Close()
		in.File = file
		in.FileName = req.File.Filename
	}

	l, err := h.lessonService.CreateLesson(c.Request.Context(), in, middleware.UserID(c))
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	status := http.StatusCreated
	if l.Status != models.LessonStatusCompleted {
		status = http.StatusAccepted
	}
	c.JSON(status, model.NewSuccessResponse(model.NewLessonResponse(l)))
}

// ListLessons 获取课程列表
// GET /api/lessons
func (h *LessonHandler) ListLessons(c *gin.Context) {
	var req model.LessonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid query parameters", err.Error()))
		return
	}

	filter := repository.LessonFilter{
		Status: models.LessonStatus(req.Status),
		Title:  req.Title,
	}
	lessons, total, err := h.lessonService.ListLessons(c.Request.Context(), req.Offset(), req.GetPageSize(), filter)
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	resp := model.LessonListResponse{
		PaginationResponse: model.PaginationResponse{
			Total:    total,
			Page:     req.GetPage(),
			PageSize: req.GetPageSize(),
		},
		Lessons: make([]model.LessonResponse, 0, len(lessons)),
	}
	for _, l := range lessons {
		resp.Lessons = append(resp.Lessons, model.NewLessonResponse(l))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetLesson 获取课程详情
// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	var req model.LessonIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}

	l, err := h.lessonService.GetLesson(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewLessonResponse(l)))
}

// UpdateLesson 更新课程
// PUT /api/lessons/:id
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	var uri model.LessonIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}
	var req model.LessonUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request body", err.Error()))
		return
	}

	l, err := h.lessonService.UpdateLesson(c.Request.Context(), uri.ID, services.UpdateLessonInput{
		Title:  req.Title,
		Slides: req.Slides,
		Quiz:   req.Quiz,
	})
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewLessonResponse(l)))
}

// DeleteLesson 删除课程
// DELETE /api/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	var req model.LessonIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}

	if err := h.lessonService.DeleteLesson(c.Request.Context(), req.ID); err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeleteResponse{
		Success: true,
		ID:      req.ID,
	}))
}

// GetLessonStatus 获取课程生成状态
// GET /api/lessons/:id/status
func (h *LessonHandler) GetLessonStatus(c *gin.Context) {
	var req model.LessonIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}

	info, err := h.lessonService.GetLessonStatus(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(info))
}

// ExportLesson 导出课程PDF
// GET /api/lessons/:id/export
func (h *LessonHandler) ExportLesson(c *gin.Context) {
	var req model.LessonIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}

	// 先渲染到缓冲区，失败时仍可返回JSON错误
	var buf bytes.Buffer
	if err := h.lessonService.ExportPDF(c.Request.Context(), req.ID, &buf); err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="lesson-%s.pdf"`, req.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// GradeQuiz 为测验评分
// POST /api/lessons/:id/grade-quiz
func (h *LessonHandler) GradeQuiz(c *gin.Context) {
	var uri model.LessonIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}
	var req model.GradeQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request body", err.Error()))
		return
	}

	submission := make([]lesson.QuestionSubmission, 0, len(req.Questions))
	for _, q := range req.Questions {
		submission = append(submission, lesson.QuestionSubmission{
			Question:      q.Question,
			UserAnswer:    q.UserAnswer,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	report, err := h.lessonService.GradeLesson(c.Request.Context(), uri.ID, submission, middleware.UserID(c))
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(report))
}

// ListAttempts 获取课程答题记录
// GET /api/lessons/:id/attempts
func (h *LessonHandler) ListAttempts(c *gin.Context) {
	var uri model.LessonIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid lesson id"))
		return
	}
	var page model.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid query parameters", err.Error()))
		return
	}

	attempts, total, err := h.lessonService.ListAttempts(c.Request.Context(), uri.ID, page.Offset(), page.GetPageSize())
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	resp := model.AttemptListResponse{
		PaginationResponse: model.PaginationResponse{
			Total:    total,
			Page:     page.GetPage(),
			PageSize: page.GetPageSize(),
		},
		Attempts: make([]model.AttemptResponse, 0, len(attempts)),
	}
	for _, a := range attempts {
		resp.Attempts = append(resp.Attempts, model.NewAttemptResponse(a))
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
