package lesson

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-lesson-system/internal/llm"
)

// promptKind 根据提示词内容识别请求类型
func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "This is the FIRST part"):
		return "first"
	case strings.Contains(prompt, "This is a MIDDLE part"):
		return "middle"
	case strings.Contains(prompt, "This is the LAST part"):
		return "last"
	case strings.HasPrefix(prompt, "The text below is a simplified lesson"):
		return "normalize"
	case strings.HasPrefix(prompt, "Create a multiple-choice quiz"):
		return "quiz"
	case strings.HasPrefix(prompt, "Rewrite the following educational material"):
		return "rewrite"
	case strings.HasPrefix(prompt, "Based on the quiz results"):
		return "feedback"
	case strings.HasPrefix(prompt, "Question:"):
		return "explanation"
	default:
		return "unknown"
	}
}

// recorder 记录发往生成服务的请求
type recorder struct {
	mu      sync.Mutex
	kinds   []string
	prompts []string
}

func (r *recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kinds...)
}

func (r *recorder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

// scriptedClient 返回一个按请求类型回复的 Mock 客户端
func scriptedClient(t *testing.T, reply func(kind, prompt string) (string, error)) (*llm.MockClient, *recorder) {
	client := llm.NewMockClient(t)
	rec := &recorder{}

	client.EXPECT().Generate(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, prompt string, _ ...llm.GenerateOption) (*llm.Response, error) {
			kind := promptKind(prompt)
			rec.mu.Lock()
			rec.kinds = append(rec.kinds, kind)
			rec.prompts = append(rec.prompts, prompt)
			rec.mu.Unlock()

			text, err := reply(kind, prompt)
			if err != nil {
				return nil, err
			}
			return &llm.Response{Text: text, ModelName: "mock-model"}, nil
		})

	return client, rec
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestPipeline(t *testing.T, client llm.Client) *Pipeline {
	cfg := DefaultConfig(client)
	cfg.Logger = quietLogger()
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

// lessonParagraphs 生成 n 个段落，每段 500 字符
func lessonParagraphs(n int) string {
	paragraphs := make([]string, n)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("cell ", 100)
	}
	return strings.Join(paragraphs, "\n\n")
}
