package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fyerfyer/doc-lesson-system/api/model"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/fyerfyer/doc-lesson-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 定义应用中的错误类型常量
const (
	ErrorTypeValidation   = "VALIDATION_ERROR"   // 输入验证错误
	ErrorTypeUnauthorized = "UNAUTHORIZED_ERROR" // 未授权错误
	ErrorTypeForbidden    = "FORBIDDEN_ERROR"    // 禁止访问错误
	ErrorTypeNotFound     = "NOT_FOUND_ERROR"    // 资源不存在错误
	ErrorTypeConflict     = "CONFLICT_ERROR"     // 资源冲突错误
	ErrorTypeUnsupported  = "UNSUPPORTED_ERROR"  // 不支持的文件类型
	ErrorTypeGeneration   = "GENERATION_ERROR"   // 文本生成失败
	ErrorTypeInternal     = "INTERNAL_ERROR"     // 内部服务器错误
	ErrorTypeBusiness     = "BUSINESS_ERROR"     // 业务逻辑错误
)

// AppError 应用错误结构体
type AppError struct {
	Type    string // 错误类型
	Message string // 错误消息
	Details string // 详细错误信息
	Code    int    // HTTP状态码
}

// Error 实现error接口的方法
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// clientMessage 返回给客户端的消息，内部错误的细节只在调试模式下返回
func (e AppError) clientMessage() string {
	if e.Details == "" {
		return e.Message
	}
	if e.Type == ErrorTypeInternal && gin.Mode() != gin.DebugMode {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func newAppError(typ string, code int, message string, details []string) AppError {
	return AppError{
		Type:    typ,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    code,
	}
}

// NewValidationError 创建输入验证错误
func NewValidationError(message string, details ...string) AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewUnauthorizedError 创建未授权错误
func NewUnauthorizedError(message string) AppError {
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, nil)
}

// NewForbiddenError 创建禁止访问错误
func NewForbiddenError(message string) AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, message, nil)
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, nil)
}

// NewConflictError 创建资源冲突错误
func NewConflictError(message string) AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, nil)
}

// NewUnsupportedError 创建不支持的文件类型错误
func NewUnsupportedError(message string) AppError {
	return newAppError(ErrorTypeUnsupported, http.StatusUnsupportedMediaType, message, nil)
}

// NewGenerationError 创建文本生成失败错误
func NewGenerationError(message string, details ...string) AppError {
	return newAppError(ErrorTypeGeneration, http.StatusBadGateway, message, details)
}

// NewInternalError 创建内部服务器错误
func NewInternalError(message string, details ...string) AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewBusinessError 创建业务逻辑错误
func NewBusinessError(message string, details ...string) AppError {
	return newAppError(ErrorTypeBusiness, http.StatusBadRequest, message, details)
}

// ErrorMiddleware 统一错误处理中间件
// 恢复 panic，并把处理器登记的最后一个错误渲染为统一响应
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(logrus.Fields{
					"error":      rec,
					"stack":      string(debug.Stack()),
					FieldPath:    c.Request.URL.Path,
					FieldTraceID: traceID(c),
				}).Error("Panic recovered in API request")

				appErr := NewInternalError("An unexpected error occurred", fmt.Sprintf("panic: %v", rec))
				renderError(c, appErr)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr AppError
		var appErrPtr *AppError
		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &appErrPtr) && appErrPtr != nil:
			appErr = *appErrPtr
		default:
			appErr = NewInternalError("Internal server error", err.Error())
		}

		entry := log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			"details":    appErr.Details,
			FieldPath:    c.Request.URL.Path,
			FieldTraceID: traceID(c),
		})
		if appErr.Code >= http.StatusInternalServerError {
			entry.Error(appErr.Message)
		} else {
			entry.Warn(appErr.Message)
		}

		renderError(c, appErr)
	}
}

// renderError 写出错误响应并中止后续处理
func renderError(c *gin.Context, appErr AppError) {
	resp := model.NewErrorResponse(appErr.Code, appErr.clientMessage())
	resp.TraceID = traceID(c)
	c.AbortWithStatusJSON(appErr.Code, resp)
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// HandleError 在处理器中使用的错误处理辅助函数
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// FromDomainError 将服务层错误映射为应用错误
func FromDomainError(err error) AppError {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *models.ValidationError
	var unsupportedErr *models.UnsupportedSourceError
	var generationErr *models.GenerationError

	switch {
	case errors.As(err, &validationErr):
		return NewValidationError(validationErr.Error())
	case errors.As(err, &unsupportedErr):
		return NewUnsupportedError(unsupportedErr.Error())
	case errors.As(err, &generationErr):
		return NewGenerationError("lesson generation failed", generationErr.Error())
	case errors.Is(err, models.ErrLessonNotFound):
		return NewNotFoundError("lesson not found")
	case errors.Is(err, models.ErrUserNotFound):
		return NewNotFoundError("user not found")
	case errors.Is(err, taskqueue.ErrTaskNotFound):
		return NewNotFoundError("task not found")
	case errors.Is(err, models.ErrUserExists):
		return NewConflictError(models.ErrUserExists.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		return NewUnauthorizedError(models.ErrInvalidCredentials.Error())
	case errors.Is(err, models.ErrInvalidLessonStatus):
		return NewBusinessError("lesson is not ready", err.Error())
	default:
		return NewInternalError("internal server error", err.Error())
	}
}
