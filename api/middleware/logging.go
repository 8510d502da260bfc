package middleware

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = newDefaultLogger()

// 常用日志字段
const (
	FieldTraceID  = "trace_id"    // 追踪ID
	FieldUserID   = "user_id"     // 用户ID
	FieldLessonID = "lesson_id"   // 课程ID
	FieldPath     = "path"        // 请求路径
	FieldMethod   = "method"      // 请求方法
	FieldStatus   = "status_code" // 状态码
	FieldLatency  = "latency"     // 延迟时间
	FieldClientIP = "client_ip"   // 客户端IP
	FieldBytes    = "bytes"       // 响应字节数
)

const (
	// traceIDKey 追踪ID在gin上下文中的键
	traceIDKey = "TraceID"
	// traceIDHeader 追踪ID的请求头和响应头
	traceIDHeader = "X-Trace-ID"
	// maxTraceIDLen 接受的外部追踪ID最大长度
	maxTraceIDLen = 64
	// maxLoggedBody 调试日志中记录的请求体和响应体上限
	maxLoggedBody = 4 << 10
)

// newDefaultLogger JSON格式输出到标准输出，DEBUG=true 时打开调试级别
func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	l.SetLevel(logrus.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// GetLogger 返回中间件和处理器共用的日志记录器
func GetLogger() *logrus.Logger {
	return log
}

// SetLogger 替换共用的日志记录器
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Logger 访问日志中间件
// 5xx 记为 Error，4xx 记为 Warn，其余记为 Info
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			FieldStatus:   status,
			FieldLatency:  time.Since(start).String(),
			FieldClientIP: c.ClientIP(),
			FieldMethod:   c.Request.Method,
			FieldPath:     path,
			FieldBytes:    c.Writer.Size(),
		})
		if id := traceID(c); id != "" {
			entry = entry.WithField(FieldTraceID, id)
		}
		if userID := UserID(c); userID != "" {
			entry = entry.WithField(FieldUserID, userID)
		}
		if lessonID := c.Param("id"); lessonID != "" && strings.HasPrefix(c.FullPath(), "/api/lessons/") {
			entry = entry.WithField(FieldLessonID, lessonID)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}

// RequestBodyLog 在调试级别记录请求体
// 文件上传只记录长度，其余内容截断到 maxLoggedBody
func RequestBodyLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !log.IsLevelEnabled(logrus.DebugLevel) || c.Request.Body == nil {
			c.Next()
			return
		}

		entry := log.WithFields(logrus.Fields{
			FieldMethod: c.Request.Method,
			FieldPath:   c.Request.URL.Path,
		})

		if strings.HasPrefix(c.ContentType(), "multipart/") {
			entry.WithField("content_length", c.Request.ContentLength).Debug("Request body omitted")
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if err == nil && len(body) > 0 {
			entry.WithField("body", truncate(body)).Debug("Request body")
		}

		c.Next()
	}
}

// ResponseLogger 在调试级别记录JSON响应体
// PDF等二进制响应不记录
func ResponseLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !log.IsLevelEnabled(logrus.DebugLevel) {
			c.Next()
			return
		}

		writer := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		if !strings.HasPrefix(writer.Header().Get("Content-Type"), "application/json") {
			return
		}
		log.WithFields(logrus.Fields{
			FieldMethod: c.Request.Method,
			FieldPath:   c.Request.URL.Path,
			FieldStatus: writer.Status(),
			"response":  truncate(writer.body.Bytes()),
		}).Debug("Response body")
	}
}

// responseBodyWriter 同时把响应写入缓冲区，缓冲区最多保留 maxLoggedBody 字节
type responseBodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody + 1 - r.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		r.body.Write(b[:room])
	}
	return r.ResponseWriter.Write(b)
}

func truncate(b []byte) string {
	if len(b) <= maxLoggedBody {
		return string(b)
	}
	return string(b[:maxLoggedBody]) + "...(truncated)"
}

// SetTraceID 将追踪ID设置到上下文和响应头中
// 请求头中带有合法长度的追踪ID时沿用，否则生成新的
func SetTraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(traceIDHeader))
		if id == "" || len(id) > maxTraceIDLen {
			id = uuid.New().String()
		}

		c.Set(traceIDKey, id)
		c.Header(traceIDHeader, id)

		c.Next()
	}
}
