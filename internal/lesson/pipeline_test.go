package lesson

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

func TestCreateLessonShortMaterial(t *testing.T) {
	unified := strings.TrimSpace(strings.Repeat("Cells are the building blocks of life (basic units). ", 20))

	client, rec := scriptedClient(t, func(kind, prompt string) (string, error) {
		switch kind {
		case "rewrite":
			return unified, nil
		case "quiz":
			return "1. What is a cell?\nA) A unit\nB) A rock\nC) A star\nD) A song\nCorrect: A", nil
		}
		return "", errors.New("unexpected request")
	})
	p := newTestPipeline(t, client)

	draft, err := p.CreateLesson(context.Background(), "  Cells  ", "Cells are the smallest units of life.")
	require.NoError(t, err)

	assert.Equal(t, "Cells", draft.Title)
	assert.Equal(t, unified, draft.UnifiedText)
	assert.Equal(t, 1, draft.SegmentCount)
	assert.Equal(t, 2, draft.Requests)
	assert.Equal(t, []string{"rewrite", "quiz"}, rec.Kinds())
	assert.True(t, strings.HasSuffix(draft.Quiz, "Correct: A"))

	require.Greater(t, len(draft.Slides), 1)
	for _, s := range draft.Slides {
		assert.LessOrEqual(t, len(s), 400)
	}
	assert.Equal(t, strings.Fields(unified), strings.Fields(strings.Join(draft.Slides, " ")))

	// 测验基于统一改写文本生成
	assert.Contains(t, rec.Prompts()[1], unified)
}

func TestCreateLessonLongMaterial(t *testing.T) {
	client, rec := scriptedClient(t, func(kind, prompt string) (string, error) {
		return "text for " + kind, nil
	})
	p := newTestPipeline(t, client)

	draft, err := p.CreateLesson(context.Background(), "Biology", lessonParagraphs(60))
	require.NoError(t, err)

	assert.Equal(t, 3, draft.SegmentCount)
	assert.Equal(t, 5, draft.Requests)
	assert.Equal(t, []string{"first", "middle", "last", "normalize", "quiz"}, rec.Kinds())
	assert.Equal(t, "text for normalize", draft.UnifiedText)
	assert.Equal(t, []string{"text for normalize"}, draft.Slides)
}

func TestCreateLessonValidation(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		field   string
	}{
		{"empty title", "", "content", "title"},
		{"blank title", "   ", "content", "title"},
		{"empty content", "Title", "", "content"},
		{"blank content", "Title", "\n\n\t", "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 未设置任何期望，发起请求会导致测试失败
			p := newTestPipeline(t, llm.NewMockClient(t))

			draft, err := p.CreateLesson(context.Background(), tt.title, tt.content)
			assert.Nil(t, draft)
			require.Error(t, err)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateLessonQuizFailure(t *testing.T) {
	client, rec := scriptedClient(t, func(kind, prompt string) (string, error) {
		if kind == "quiz" {
			return "", llm.NewLLMError(llm.ErrCodeTimeout, llm.ErrMsgTimeout)
		}
		return "rewritten", nil
	})
	p := newTestPipeline(t, client)

	draft, err := p.CreateLesson(context.Background(), "Title", "content")
	assert.Nil(t, draft)
	require.Error(t, err)
	assert.True(t, models.IsGenerationError(err))
	assert.Equal(t, llm.ErrCodeTimeout, llm.CodeOf(err))
	assert.Equal(t, []string{"rewrite", "quiz"}, rec.Kinds())
}

func TestCreateLessonEmptyRewriteFallsBackToSingleSlide(t *testing.T) {
	client, _ := scriptedClient(t, func(kind, prompt string) (string, error) {
		if kind == "quiz" {
			return "quiz", nil
		}
		return "   ", nil
	})
	p := newTestPipeline(t, client)

	draft, err := p.CreateLesson(context.Background(), "Title", "content")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, draft.Slides)
}

func TestCreateLessonCanceledContext(t *testing.T) {
	p := newTestPipeline(t, llm.NewMockClient(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.CreateLesson(ctx, "Title", "content")
	assert.ErrorIs(t, err, context.Canceled)
}
