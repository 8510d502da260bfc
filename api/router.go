package api

import (
	"net/http"

	"github.com/fyerfyer/doc-lesson-system/api/handler"
	"github.com/fyerfyer/doc-lesson-system/api/middleware"
	"github.com/gin-gonic/gin"
)

// RouterConfig 路由配置
type RouterConfig struct {
	LessonHandler *handler.LessonHandler // 课程处理器
	AuthHandler   *handler.AuthHandler   // 账号处理器
	TaskHandler   *handler.TaskHandler   // 任务处理器，未启用队列时为空
	RequireAuth   gin.HandlerFunc        // 需要登录的接口使用的中间件
	LessonAuth    gin.HandlerFunc        // 课程接口使用的中间件
	AllowOrigins  []string               // 允许跨域的来源
}

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// 应用全局中间件
	router.Use(middleware.CORS(cfg.AllowOrigins))
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
		router.Use(middleware.ResponseLogger())
	}

	requireAuth := cfg.RequireAuth
	if requireAuth == nil {
		requireAuth = middleware.RequireAuth(nil)
	}
	lessonAuth := cfg.LessonAuth
	if lessonAuth == nil {
		lessonAuth = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api")
	{
		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// 账号API
		if cfg.AuthHandler != nil {
			authGroup := api.Group("/auth")
			{
				authGroup.POST("/register", cfg.AuthHandler.Register)
				authGroup.POST("/login", cfg.AuthHandler.Login)

				protected := authGroup.Group("", requireAuth)
				protected.GET("/profile", cfg.AuthHandler.Profile)
				protected.POST("/logout", cfg.AuthHandler.Logout)
			}
		}

		// 课程API
		lessonGroup := api.Group("/lessons", lessonAuth)
		{
			lessonGroup.POST("", cfg.LessonHandler.CreateLesson)
			lessonGroup.GET("", cfg.LessonHandler.ListLessons)
			lessonGroup.GET("/:id", cfg.LessonHandler.GetLesson)
			lessonGroup.PUT("/:id", cfg.LessonHandler.UpdateLesson)
			lessonGroup.DELETE("/:id", cfg.LessonHandler.DeleteLesson)
			lessonGroup.GET("/:id/status", cfg.LessonHandler.GetLessonStatus)
			lessonGroup.GET("/:id/export", cfg.LessonHandler.ExportLesson)
			lessonGroup.POST("/:id/grade-quiz", cfg.LessonHandler.GradeQuiz)
			lessonGroup.GET("/:id/attempts", cfg.LessonHandler.ListAttempts)

			if cfg.TaskHandler != nil {
				lessonGroup.GET("/:id/tasks", cfg.TaskHandler.GetLessonTasks)
			}
		}

		// 任务API
		if cfg.TaskHandler != nil {
			api.GET("/tasks/:id", lessonAuth, cfg.TaskHandler.GetTaskStatus)
		}
	}

	return router
}
