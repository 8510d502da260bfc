package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fyerfyer/doc-lesson-system/api"
	"github.com/fyerfyer/doc-lesson-system/api/handler"
	"github.com/fyerfyer/doc-lesson-system/api/middleware"
	lessonconfig "github.com/fyerfyer/doc-lesson-system/config"
	"github.com/fyerfyer/doc-lesson-system/internal/auth"
	"github.com/fyerfyer/doc-lesson-system/internal/cache"
	"github.com/fyerfyer/doc-lesson-system/internal/database"
	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/fyerfyer/doc-lesson-system/internal/repository"
	"github.com/fyerfyer/doc-lesson-system/internal/services"
	"github.com/fyerfyer/doc-lesson-system/pkg/storage"
	"github.com/fyerfyer/doc-lesson-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 运行角色
const (
	roleAll    = "all"    // 同时提供HTTP服务和处理队列任务
	roleServer = "server" // 只提供HTTP服务
	roleWorker = "worker" // 只处理队列任务
)

// writeTimeoutMargin 同步生成课程时写超时在生成期限之上预留的余量
const writeTimeoutMargin = 30 * time.Second

// 命令行选项
type options struct {
	ConfigFile   string        // 配置文件路径
	EnvFile      string        // .env 文件路径
	Role         string        // 运行角色
	Port         int           // 服务端口
	Mode         string        // 运行模式 (debug/release)
	LogLevel     string        // 日志级别
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时
	QueueEnabled bool          // 是否启用任务队列
}

func main() {
	opts := parseFlags()

	// .env 文件可选
	if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to load %s: %v", opts.EnvFile, err)
	}

	cfg, err := lessonconfig.Load(opts.ConfigFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, opts)

	gin.SetMode(opts.Mode)

	logger := setupLogger(cfg.Log)
	logger.WithField("role", opts.Role).Info("Starting lesson system...")

	// 初始化数据库
	if err := database.Setup(&database.Config{
		Type:         cfg.Database.Type,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxLifetime:  time.Hour,
	}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	llmClient, err := setupLLM(cfg.LLM)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	pipeline, err := setupPipeline(cfg.Lesson, cfg.LLM.Timeout, llmClient, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize lesson pipeline: %v", err)
	}

	lessonOptions := []services.LessonOption{
		services.WithLogger(logger),
		services.WithStorage(fileStorage),
		services.WithLessonRepository(repository.NewLessonRepository()),
		services.WithAttemptRepository(repository.NewAttemptRepository()),
		services.WithTimeout(cfg.Lesson.Timeout),
		services.WithMaxUploadSize(cfg.Lesson.MaxUploadSize),
	}

	if cfg.Cache.Enable {
		cacheService, err := setupCache(cfg.Cache)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
		lessonOptions = append(lessonOptions, services.WithCache(cacheService, time.Duration(cfg.Cache.TTL)*time.Second))
	}

	// 初始化任务队列（如果启用）
	var queue *taskqueue.RedisQueue
	if cfg.Queue.Enable {
		queue, err = setupTaskQueue(cfg.Queue, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		lessonOptions = append(lessonOptions, services.WithTaskQueue(queue))
		logger.Info("Lessons will be built by the task queue")
	} else if opts.Role == roleWorker {
		logger.Fatal("Worker role requires queue.enable")
	}

	lessonService := services.NewLessonService(pipeline, lessonOptions...)
	if err := lessonService.Init(); err != nil {
		logger.Fatalf("Failed to initialize lesson service: %v", err)
	}

	// 启动队列工作者
	var worker *taskqueue.RedisWorker
	if queue != nil && opts.Role != roleServer {
		worker = taskqueue.NewRedisWorker(queue, nil)
		buildHandler := services.NewLessonBuildHandler(lessonService)
		for _, taskType := range buildHandler.GetTaskTypes() {
			worker.RegisterHandler(taskType, buildHandler)
		}
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		logger.WithField("concurrency", cfg.Queue.Concurrency).Info("Task worker started")
	}

	var srv *http.Server
	if opts.Role != roleWorker {
		var taskQueue taskqueue.Queue
		if queue != nil {
			taskQueue = queue
		}
		router, err := setupRouter(cfg, lessonService, taskQueue, logger)
		if err != nil {
			logger.Fatalf("Failed to set up router: %v", err)
		}

		writeTimeout := serverWriteTimeout(opts.WriteTimeout, cfg)
		if writeTimeout != opts.WriteTimeout {
			logger.WithFields(logrus.Fields{
				"write_timeout":  writeTimeout.String(),
				"lesson_timeout": cfg.Lesson.Timeout.String(),
			}).Info("Raised write timeout to cover synchronous lesson builds")
		}

		srv = &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: writeTimeout,
		}

		go func() {
			logger.Infof("Server is running on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("Failed to start server: %v", err)
			}
		}()
	}

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("Server forced to shutdown: %v", err)
		}
	}
	if worker != nil {
		worker.Stop()
	}

	logger.Info("Exited")
}

// parseFlags 解析命令行参数
func parseFlags() options {
	opts := options{}

	flag.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to config file")
	flag.StringVar(&opts.EnvFile, "env", ".env", "Path to .env file")
	flag.StringVar(&opts.Role, "role", roleAll, "Process role (all/server/worker)")
	flag.IntVar(&opts.Port, "port", 8080, "Server port")
	flag.StringVar(&opts.Mode, "mode", gin.DebugMode, "Run mode (debug/release)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	flag.DurationVar(&opts.ReadTimeout, "read-timeout", 30*time.Second, "Read timeout")
	flag.DurationVar(&opts.WriteTimeout, "write-timeout", 60*time.Second, "Write timeout")
	flag.BoolVar(&opts.QueueEnabled, "queue", false, "Enable task queue")

	flag.Parse()
	return opts
}

// applyFlags 用命令行上明确设置的参数覆盖配置文件
func applyFlags(cfg *lessonconfig.Config, opts options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = opts.Port
		case "log-level":
			cfg.Log.Level = opts.LogLevel
		case "queue":
			cfg.Queue.Enable = opts.QueueEnabled
		}
	})
}

// setupLogger 设置日志系统，配置了日志文件时同时输出到滚动文件
func setupLogger(cfg lessonconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}))
	}

	return logger
}

// setupStorage 设置文件存储服务
func setupStorage(cfg lessonconfig.StorageConfig) (storage.Storage, error) {
	return storage.New(storage.Config{
		Type:  cfg.Type,
		Local: storage.LocalConfig{Path: cfg.Path},
		Minio: storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		},
	})
}

// setupLLM 设置大语言模型客户端
func setupLLM(cfg lessonconfig.LLMConfig) (llm.Client, error) {
	if cfg.APIKey == "" || strings.HasPrefix(cfg.APIKey, "${") {
		return nil, fmt.Errorf("LLM API key is required for provider %s", cfg.Provider)
	}

	return llm.NewClient(cfg.Provider,
		llm.WithAPIKey(cfg.APIKey),
		llm.WithBaseURL(cfg.Endpoint),
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTemperature(cfg.Temperature),
		llm.WithTimeout(cfg.Timeout),
		llm.WithMaxRetries(cfg.MaxRetries),
	)
}

// serverWriteTimeout 未启用队列时课程在请求内同步生成，写超时不能短于生成期限
func serverWriteTimeout(requested time.Duration, cfg *lessonconfig.Config) time.Duration {
	if cfg.Queue.Enable || requested <= 0 {
		return requested
	}
	if floor := cfg.Lesson.Timeout + writeTimeoutMargin; requested < floor {
		return floor
	}
	return requested
}

// setupPipeline 设置课程生成管线，requestTimeout 限制单次生成请求
func setupPipeline(cfg lessonconfig.LessonConfig, requestTimeout time.Duration, client llm.Client, logger *logrus.Logger) (*lesson.Pipeline, error) {
	pipelineCfg := lesson.DefaultConfig(client)
	if requestTimeout > 0 {
		pipelineCfg.RequestTimeout = requestTimeout
	}
	if cfg.SegmentChars > 0 {
		pipelineCfg.SegmentChars = cfg.SegmentChars
	}
	if cfg.SlideChars > 0 {
		pipelineCfg.SlideChars = cfg.SlideChars
	}
	if cfg.QuizMin > 0 {
		pipelineCfg.QuizMin = cfg.QuizMin
	}
	if cfg.QuizMax > 0 {
		pipelineCfg.QuizMax = cfg.QuizMax
	}
	pipelineCfg.Logger = logger
	return lesson.New(pipelineCfg)
}

// setupCache 设置缓存服务
func setupCache(cfg lessonconfig.CacheConfig) (cache.Cache, error) {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cfg.Type
	if cfg.TTL > 0 {
		cacheConfig.DefaultTTL = time.Duration(cfg.TTL) * time.Second
	}
	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
	}
	return cache.NewCache(cacheConfig)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg lessonconfig.QueueConfig, logger *logrus.Logger) (*taskqueue.RedisQueue, error) {
	queueConfig := taskqueue.DefaultConfig()
	queueConfig.RedisAddr = cfg.RedisAddr
	queueConfig.RedisPassword = cfg.RedisPassword
	queueConfig.RedisDB = cfg.RedisDB
	if cfg.Concurrency > 0 {
		queueConfig.Concurrency = cfg.Concurrency
	}
	queueConfig.RetryLimit = cfg.RetryLimit
	if cfg.RetryDelay > 0 {
		queueConfig.RetryDelay = time.Duration(cfg.RetryDelay) * time.Second
	}

	logger.WithFields(logrus.Fields{
		"redis_addr":  cfg.RedisAddr,
		"concurrency": queueConfig.Concurrency,
		"retry_limit": queueConfig.RetryLimit,
	}).Info("Setting up task queue")

	return taskqueue.NewRedisQueue(queueConfig, taskqueue.WithLogger(logger))
}

// setupRouter 组装处理器和认证中间件
func setupRouter(cfg *lessonconfig.Config, lessonService *services.LessonService, queue taskqueue.Queue, logger *logrus.Logger) (*gin.Engine, error) {
	routerCfg := api.RouterConfig{
		LessonHandler: handler.NewLessonHandler(lessonService),
		AllowOrigins:  cfg.Server.AllowOrigins,
	}
	if queue != nil {
		routerCfg.TaskHandler = handler.NewTaskHandler(queue)
	}

	secret := cfg.Auth.Secret
	if secret == "" || strings.HasPrefix(secret, "${") {
		if cfg.Auth.Enable {
			return nil, fmt.Errorf("auth.secret is required when auth is enabled")
		}
		logger.Warn("No JWT secret configured, account endpoints are disabled")
		return api.SetupRouter(routerCfg), nil
	}

	tokens, err := auth.NewTokenManager(secret, auth.WithExpiry(time.Duration(cfg.Auth.ExpiryHours)*time.Hour))
	if err != nil {
		return nil, err
	}
	userService := services.NewUserService(repository.NewUserRepository(), tokens,
		services.WithHasher(auth.NewHasher(cfg.Auth.BcryptCost)),
		services.WithUserLogger(logger),
	)

	routerCfg.AuthHandler = handler.NewAuthHandler(userService)
	routerCfg.RequireAuth = middleware.RequireAuth(tokens)
	if cfg.Auth.Enable {
		routerCfg.LessonAuth = middleware.RequireAuth(tokens)
	} else {
		routerCfg.LessonAuth = middleware.OptionalAuth(tokens)
	}

	return api.SetupRouter(routerCfg), nil
}
