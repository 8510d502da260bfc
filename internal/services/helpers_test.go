package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/database"
	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/fyerfyer/doc-lesson-system/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sampleQuiz = "1. What do plants need?\nA) Light\nB) Sand\nC) Salt\nD) Iron\nCorrect: A"

// setupTestDB 创建内存数据库并替换全局连接
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")
	require.NoError(t, database.AutoMigrate(db), "Failed to run migrations")

	originalDB := database.DB
	database.DB = db

	return db, func() {
		database.DB = originalDB
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// callLog 记录生成请求的类型
type callLog struct {
	mu    sync.Mutex
	kinds []string
}

func (c *callLog) add(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, kind)
}

func (c *callLog) Kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.kinds...)
}

func promptKind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "Create a multiple-choice quiz"):
		return "quiz"
	case strings.HasPrefix(prompt, "Based on the quiz results"):
		return "feedback"
	case strings.HasPrefix(prompt, "Question:"):
		return "explanation"
	default:
		return "rewrite"
	}
}

// fakeLLM 按请求类型返回固定文本，fail 中的类型返回错误
func fakeLLM(t *testing.T, fail ...string) (*llm.MockClient, *callLog) {
	client := llm.NewMockClient(t)
	log := &callLog{}

	client.EXPECT().Generate(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, prompt string, _ ...llm.GenerateOption) (*llm.Response, error) {
			kind := promptKind(prompt)
			log.add(kind)
			for _, f := range fail {
				if f == kind {
					return nil, llm.NewLLMError(llm.ErrCodeServerError, llm.ErrMsgServerError)
				}
			}
			switch kind {
			case "quiz":
				return &llm.Response{Text: sampleQuiz}, nil
			case "feedback":
				return &llm.Response{Text: "Keep going!"}, nil
			case "explanation":
				return &llm.Response{Text: "Plants need light."}, nil
			default:
				return &llm.Response{Text: "Plants use light to make food."}, nil
			}
		}).Maybe()

	return client, log
}

func newTestPipeline(t *testing.T, client llm.Client) *lesson.Pipeline {
	cfg := lesson.DefaultConfig(client)
	cfg.Logger = quietLogger()
	p, err := lesson.New(cfg)
	require.NoError(t, err)
	return p
}

func newTestLessonService(t *testing.T, db *gorm.DB, client llm.Client, opts ...LessonOption) *LessonService {
	base := []LessonOption{
		WithLogger(quietLogger()),
		WithLessonRepository(repository.NewLessonRepositoryWithDB(db)),
		WithAttemptRepository(repository.NewAttemptRepositoryWithDB(db)),
	}
	srv := NewLessonService(newTestPipeline(t, client), append(base, opts...)...)
	require.NoError(t, srv.Init())
	return srv
}
