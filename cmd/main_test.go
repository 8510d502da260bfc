package main

import (
	"io"
	"testing"
	"time"

	lessonconfig "github.com/fyerfyer/doc-lesson-system/config"
	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerWriteTimeout(t *testing.T) {
	cfg := &lessonconfig.Config{}
	cfg.Lesson.Timeout = 10 * time.Minute

	t.Run("raised to cover synchronous builds", func(t *testing.T) {
		got := serverWriteTimeout(60*time.Second, cfg)
		assert.Equal(t, 10*time.Minute+writeTimeoutMargin, got)
	})

	t.Run("longer value kept", func(t *testing.T) {
		assert.Equal(t, time.Hour, serverWriteTimeout(time.Hour, cfg))
	})

	t.Run("zero means no timeout", func(t *testing.T) {
		assert.Zero(t, serverWriteTimeout(0, cfg))
	})

	t.Run("queue builds outside the request", func(t *testing.T) {
		queued := &lessonconfig.Config{}
		queued.Lesson.Timeout = 10 * time.Minute
		queued.Queue.Enable = true
		assert.Equal(t, 60*time.Second, serverWriteTimeout(60*time.Second, queued))
	})
}

func TestSetupPipeline(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	p, err := setupPipeline(lessonconfig.LessonConfig{
		SegmentChars: 5000,
		SlideChars:   300,
		QuizMin:      12,
		QuizMax:      15,
	}, 90*time.Second, llm.NewMockClient(t), logger)
	require.NoError(t, err)

	cfg := p.Config()
	assert.Equal(t, 5000, cfg.SegmentChars)
	assert.Equal(t, 300, cfg.SlideChars)
	assert.Equal(t, 15, cfg.QuizMax)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
}
