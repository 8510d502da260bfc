package taskqueue

import (
	"context"
	"encoding/json"
	"time"
)

// Producer 投递课程任务
type Producer interface {
	// Enqueue 立即投递任务，返回任务ID
	Enqueue(ctx context.Context, taskType TaskType, lessonID string, payload interface{}) (string, error)
	// EnqueueIn 延迟 delay 后投递任务
	EnqueueIn(ctx context.Context, taskType TaskType, lessonID string, payload interface{}, delay time.Duration) (string, error)
}

// Inspector 查询和清理任务记录
type Inspector interface {
	GetTask(ctx context.Context, taskID string) (*Task, error)
	GetTasksByLesson(ctx context.Context, lessonID string) ([]*Task, error)
	// WaitForTask 阻塞到任务结束，timeout 为0表示只受 ctx 约束
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)
	// DeleteTask 删除任务记录，未结束的任务同时从队列中移除
	DeleteTask(ctx context.Context, taskID string) error
}

// Queue 课程任务队列
// 服务端通过它投递和查询任务，工作者通过它回写状态
type Queue interface {
	Producer
	Inspector

	// UpdateTaskStatus 回写任务状态，进入终态时记录结果和完成时间
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error
	// NotifyTaskUpdate 发布任务状态变更
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	Close() error
}

// Handler 任务处理器
type Handler interface {
	// ProcessTask 执行任务，返回值序列化后写入任务结果
	ProcessTask(ctx context.Context, task *Task) (interface{}, error)
	// GetTaskTypes 处理器负责的任务类型
	GetTaskTypes() []TaskType
}

// Worker 运行处理器消费队列
type Worker interface {
	RegisterHandler(taskType TaskType, handler Handler)
	Start() error
	Stop()
}

// Factory 队列工厂函数类型
type Factory func(cfg *Config) (Queue, error)

// Config 队列配置
type Config struct {
	RedisAddr     string         // Redis地址
	RedisPassword string         // Redis密码
	RedisDB       int            // Redis数据库
	Concurrency   int            // 同时生成的课程数
	RetryLimit    int            // 最大重试次数
	RetryDelay    time.Duration  // 重试延迟
	Queues        map[string]int // 队列名称到优先级的映射
}

// DefaultConfig 返回默认配置
// 生成失败不会自动重试，由用户重新提交
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		Concurrency: 4,
		RetryDelay:  time.Minute,
		Queues:      map[string]int{defaultQueueName: 1},
	}
}

// MarshalPayload 序列化任务载荷，nil 记为空对象
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload 解析任务载荷，空载荷和格式错误都返回 ErrInvalidPayload
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 || json.Unmarshal(data, v) != nil {
		return ErrInvalidPayload
	}
	return nil
}
