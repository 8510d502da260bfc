package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache 缓存接口
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory 缓存工厂函数类型
type Factory func(config Config) (Cache, error)

// 注册的缓存实现
var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 创建缓存实例
func NewCache(config Config) (Cache, error) {
	if config.Type == "" {
		config.Type = "memory"
	}
	factory, ok := registry[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
	return factory(config)
}

// Config 缓存配置
type Config struct {
	// 缓存类型: "memory", "redis"
	Type string
	// Redis连接地址 (仅Redis缓存使用)
	RedisAddr string
	// Redis密码 (仅Redis缓存使用)
	RedisPassword string
	// Redis数据库编号 (仅Redis缓存使用)
	RedisDB int
	// 键前缀 (仅Redis缓存使用)，Clear 只清除带此前缀的键
	KeyPrefix string
	// 默认缓存过期时间
	DefaultTTL time.Duration
	// 自动清理间隔时间 (仅内存缓存使用)
	CleanupInterval time.Duration
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		KeyPrefix:       "lesson-system:",
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute * 10,
	}
}

const (
	// lessonKeyPrefix 课程详情缓存键前缀
	lessonKeyPrefix = "lesson"
	// attemptsKeyPrefix 课程答题记录缓存键前缀
	attemptsKeyPrefix = "attempts"
)

// GenerateCacheKey 生成标准化的缓存键
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}

// LessonKey 课程详情的缓存键
func LessonKey(lessonID string) string {
	return GenerateCacheKey(lessonKeyPrefix, lessonID)
}

// AttemptsKey 课程答题记录列表的缓存键
func AttemptsKey(lessonID string) string {
	return GenerateCacheKey(attemptsKeyPrefix, lessonID)
}

// GetJSON 读取缓存并反序列化到 v
// 缓存内容无法解析时视为未命中
func GetJSON(c Cache, key string, v interface{}) (bool, error) {
	raw, found, err := c.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		_ = c.Delete(key)
		return false, nil
	}
	return true, nil
}

// SetJSON 序列化 v 并写入缓存
func SetJSON(c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.Set(key, string(data), ttl)
}
