package lesson

import (
	"context"
	"strconv"
)

// QuizGenerator 根据统一改写文本生成选择题测验
type QuizGenerator struct {
	gen      *generator
	min, max int
}

// NewQuizGenerator 创建测验生成器
func NewQuizGenerator(cfg Config) (*QuizGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newQuizGenerator(newGenerator(cfg), cfg.QuizMin, cfg.QuizMax), nil
}

func newQuizGenerator(gen *generator, min, max int) *QuizGenerator {
	return &QuizGenerator{gen: gen, min: min, max: max}
}

// Generate 发起一次请求生成测验
// 输出只做修剪，不校验题目数量与格式
func (q *QuizGenerator) Generate(ctx context.Context, unifiedText string) (string, error) {
	return q.gen.generate(ctx, "quiz", renderPrompt(QuizTemplate, map[string]string{
		"Min":     strconv.Itoa(q.min),
		"Max":     strconv.Itoa(q.max),
		"Content": unifiedText,
	}))
}
