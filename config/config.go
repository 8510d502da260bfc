package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Database DatabaseConfig `mapstructure:"database"`
	Lesson   LessonConfig   `mapstructure:"lesson"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string   `mapstructure:"host"`          // 服务器主机
	Port         int      `mapstructure:"port"`          // 服务器端口
	AllowOrigins []string `mapstructure:"allow_origins"` // 允许跨域的来源，为空时允许全部
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type      string `mapstructure:"type"`     // 存储类型：local 或 minio
	Path      string `mapstructure:"path"`     // 本地存储路径
	Bucket    string `mapstructure:"bucket"`   // MinIO桶名称
	Endpoint  string `mapstructure:"endpoint"` // MinIO端点
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"` // 是否使用SSL
}

// LLMConfig 大语言模型配置
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`    // 提供商：openrouter, openai, tongyi, gemini
	Model       string        `mapstructure:"model"`       // 模型名称
	APIKey      string        `mapstructure:"api_key"`     // API密钥
	Endpoint    string        `mapstructure:"endpoint"`    // API端点
	MaxTokens   int           `mapstructure:"max_tokens"`  // 最大生成token数量
	Temperature float32       `mapstructure:"temperature"` // 采样温度
	Timeout     time.Duration `mapstructure:"timeout"`     // 单次请求超时
	MaxRetries  int           `mapstructure:"max_retries"` // 最大重试次数
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`   // 是否启用缓存
	Type     string `mapstructure:"type"`     // 缓存类型：memory 或 redis
	Address  string `mapstructure:"address"`  // Redis地址
	Password string `mapstructure:"password"` // Redis密码
	DB       int    `mapstructure:"db"`       // Redis数据库
	TTL      int    `mapstructure:"ttl"`      // 缓存TTL（秒）
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	Enable        bool   `mapstructure:"enable"`         // 是否启用任务队列
	RedisAddr     string `mapstructure:"redis_addr"`     // Redis地址
	RedisPassword string `mapstructure:"redis_password"` // Redis密码
	RedisDB       int    `mapstructure:"redis_db"`       // Redis数据库编号
	Concurrency   int    `mapstructure:"concurrency"`    // 任务处理并发数
	RetryLimit    int    `mapstructure:"retry_limit"`    // 任务最大重试次数
	RetryDelay    int    `mapstructure:"retry_delay"`    // 重试延迟(秒)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // 数据库类型: sqlite, postgres
	DSN  string `mapstructure:"dsn"`  // 数据源名称
}

// LessonConfig 课程生成配置
type LessonConfig struct {
	SegmentChars  int           `mapstructure:"segment_chars"`   // 单次改写请求的字符预算
	SlideChars    int           `mapstructure:"slide_chars"`     // 单张幻灯片的字符预算
	QuizMin       int           `mapstructure:"quiz_min"`        // 测验题目数下限
	QuizMax       int           `mapstructure:"quiz_max"`        // 测验题目数上限
	Timeout       time.Duration `mapstructure:"timeout"`         // 整个课程生成的超时
	MaxUploadSize int64         `mapstructure:"max_upload_size"` // 上传文件大小上限（字节）
}

// AuthConfig 账号认证配置
type AuthConfig struct {
	Enable      bool   `mapstructure:"enable"`       // 课程接口是否需要登录
	Secret      string `mapstructure:"secret"`       // JWT签名密钥
	ExpiryHours int    `mapstructure:"expiry_hours"` // 令牌有效期（小时）
	BcryptCost  int    `mapstructure:"bcrypt_cost"`  // 密码哈希强度
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`        // 日志级别
	File       string `mapstructure:"file"`         // 日志文件，为空时只输出到控制台
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // 单个日志文件大小上限
	MaxBackups int    `mapstructure:"max_backups"`  // 保留的旧日志文件数
	MaxAgeDays int    `mapstructure:"max_age_days"` // 旧日志保留天数
}

// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	var config Config

	// 设置默认配置路径
	if configPath == "" {
		configPath = "config.yaml" // 默认在当前目录寻找config.yaml
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		// 找不到配置文件时写出一份默认配置
		logrus.Warnf("Config file not found at %s, using defaults", configPath)
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err == nil {
			if err := v.WriteConfigAs(configPath); err != nil {
				logrus.Warnf("Could not write default config to %s: %v", configPath, err)
			}
		}
	} else {
		logrus.Infof("Using config file: %s", v.ConfigFileUsed())
	}

	// 支持环境变量覆盖
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	return processEnvironmentVariables(&config), nil
}

// isNotFound 判断是否为配置文件不存在
// SetConfigFile 指定路径时 viper 返回的是 fs 错误而不是 ConfigFileNotFoundError
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

// processEnvironmentVariables 展开配置项中的 ${ENV} 占位符
func processEnvironmentVariables(cfg *Config) *Config {
	for _, field := range []*string{
		&cfg.LLM.APIKey,
		&cfg.LLM.Endpoint,
		&cfg.Storage.AccessKey,
		&cfg.Storage.SecretKey,
		&cfg.Cache.Password,
		&cfg.Queue.RedisPassword,
		&cfg.Database.DSN,
		&cfg.Auth.Secret,
	} {
		*field = expandEnv(*field)
	}
	return cfg
}

// expandEnv 替换形如 ${NAME} 的整段取值，环境变量为空时保留原值
func expandEnv(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	if envVal := os.Getenv(value[2 : len(value)-1]); envVal != "" {
		return envVal
	}
	return value
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{})

	// 存储默认配置
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.bucket", "lessons")
	v.SetDefault("storage.use_ssl", false)

	// LLM默认配置
	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.model", "openai/gpt-3.5-turbo")
	v.SetDefault("llm.endpoint", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.api_key", "${OPENROUTER_API_KEY}")
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.max_retries", 0)

	// 缓存默认配置
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 3600) // 1小时

	// 队列默认配置
	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.retry_limit", 0)
	v.SetDefault("queue.retry_delay", 60) // 60秒

	// 数据库默认配置
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/lessons.db")

	// 课程生成默认配置
	v.SetDefault("lesson.segment_chars", 12000)
	v.SetDefault("lesson.slide_chars", 400)
	v.SetDefault("lesson.quiz_min", 12)
	v.SetDefault("lesson.quiz_max", 20)
	v.SetDefault("lesson.timeout", "10m")
	v.SetDefault("lesson.max_upload_size", 20<<20)

	// 认证默认配置
	v.SetDefault("auth.enable", true)
	v.SetDefault("auth.secret", "${JWT_SECRET}")
	v.SetDefault("auth.expiry_hours", 24)
	v.SetDefault("auth.bcrypt_cost", 10)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}
