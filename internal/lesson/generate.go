package lesson

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

// generator 对文本生成服务的一层包装
// 负责单次请求超时、输出修剪和错误归类
type generator struct {
	client  llm.Client
	timeout time.Duration
	logger  *logrus.Logger
}

func newGenerator(cfg Config) *generator {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &generator{
		client:  cfg.Client,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

// generate 发起一次生成请求，返回修剪后的文本
// 任何失败都包装为 GenerationError，step 标识失败的步骤
func (g *generator) generate(ctx context.Context, step, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Generate(ctx, prompt)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"step":  step,
			"error": err.Error(),
		}).Warn("Generation request failed")
		return "", models.NewGenerationError(step, err)
	}

	var text string
	if resp != nil {
		text = strings.TrimSpace(resp.Text)
	}

	g.logger.WithFields(logrus.Fields{
		"step":        step,
		"prompt_len":  len(prompt),
		"output_len":  len(text),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Generation request completed")

	return text, nil
}
