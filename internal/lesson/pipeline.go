package lesson

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-lesson-system/internal/document"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

// Draft 生成完成但尚未保存的课程
type Draft struct {
	Title        string   // 课程标题
	Slides       []string // 幻灯片文本，按展示顺序排列
	Quiz         string   // 测验文本
	UnifiedText  string   // 统一改写文本
	SegmentCount int      // 切分出的片段数量
	Requests     int      // 本次生成发起的请求数量
}

// Pipeline 课程生成与测验评分管线
// 不持有跨调用的可变状态，可被多个请求并发使用
type Pipeline struct {
	cfg      Config
	rewriter *Rewriter
	quiz     *QuizGenerator
	grader   *Grader
	logger   *logrus.Logger
}

// New 创建课程管线
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gen := newGenerator(cfg)
	return &Pipeline{
		cfg:      cfg,
		rewriter: newRewriter(gen, cfg.SegmentChars),
		quiz:     newQuizGenerator(gen, cfg.QuizMin, cfg.QuizMax),
		grader:   &Grader{gen: gen},
		logger:   gen.logger,
	}, nil
}

// Config 返回管线配置
func (p *Pipeline) Config() Config {
	return p.cfg
}

// CreateLesson 改写材料并生成幻灯片与测验
// 标题或内容为空时在发起任何请求之前返回校验错误；任一生成请求失败则整体失败
func (p *Pipeline) CreateLesson(ctx context.Context, title, content string) (*Draft, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, models.NewValidationError("title", "title is required")
	}
	if content == "" {
		return nil, models.NewValidationError("content", "content is required")
	}

	rewrite, err := p.rewriter.Rewrite(ctx, content)
	if err != nil {
		return nil, err
	}

	slides := document.SlideTexts(document.Chunk(rewrite.UnifiedText, p.cfg.SlideChars))
	if len(slides) == 0 {
		slides = []string{rewrite.UnifiedText}
	}

	quiz, err := p.quiz.Generate(ctx, rewrite.UnifiedText)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"title":    title,
		"segments": rewrite.Segments,
		"slides":   len(slides),
		"requests": rewrite.Requests + 1,
	}).Info("Lesson generated")

	return &Draft{
		Title:        title,
		Slides:       slides,
		Quiz:         quiz,
		UnifiedText:  rewrite.UnifiedText,
		SegmentCount: rewrite.Segments,
		Requests:     rewrite.Requests + 1,
	}, nil
}

// Rewrite 只执行改写步骤
func (p *Pipeline) Rewrite(ctx context.Context, content string) (*RewriteResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("content", "content is required")
	}
	return p.rewriter.Rewrite(ctx, content)
}

// GradeQuiz 对提交的答案评分
func (p *Pipeline) GradeQuiz(ctx context.Context, submission []QuestionSubmission) (*GradeReport, error) {
	return p.grader.Grade(ctx, submission)
}
