package lesson

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-lesson-system/internal/document"
)

// RewriteResult 统一改写结果
type RewriteResult struct {
	UnifiedText string // 统一、简化后的课程文本
	Segments    int    // 切分出的片段数量
	Requests    int    // 发起的生成请求数量
}

// step 改写管线中的一个步骤
// run 接收上一步的输出，返回本步的输出
type step struct {
	name string
	run  func(ctx context.Context, prior string) (string, error)
}

// runSteps 按顺序执行步骤，遇到第一个失败立即返回
// 返回最后一步的输出与已成功执行的步骤数
func runSteps(ctx context.Context, steps []step) (string, int, error) {
	var output string
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return "", i, err
		}
		next, err := s.run(ctx, output)
		if err != nil {
			return "", i, err
		}
		output = next
	}
	return output, len(steps), nil
}

// Rewriter 将任意长度的材料改写为一份统一的简化文本
type Rewriter struct {
	gen      *generator
	splitter *document.ModelSafeSplitter
}

// NewRewriter 创建改写器
func NewRewriter(cfg Config) (*Rewriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newRewriter(newGenerator(cfg), cfg.SegmentChars), nil
}

func newRewriter(gen *generator, segmentChars int) *Rewriter {
	return &Rewriter{
		gen:      gen,
		splitter: document.NewModelSafeSplitter(segmentChars),
	}
}

// Rewrite 改写材料
// 单片段时只发起一次请求；多片段时按顺序逐段改写后再发起一次合并请求
func (r *Rewriter) Rewrite(ctx context.Context, content string) (*RewriteResult, error) {
	segments := r.splitter.Split(content)
	steps := r.plan(segments)

	r.gen.logger.WithFields(logrus.Fields{
		"content_len": len(content),
		"segments":    len(segments),
		"requests":    len(steps),
	}).Info("Starting lesson rewrite")

	unified, done, err := runSteps(ctx, steps)
	if err != nil {
		r.gen.logger.WithFields(logrus.Fields{
			"completed_steps": done,
			"error":           err.Error(),
		}).Error("Lesson rewrite aborted")
		return nil, err
	}

	return &RewriteResult{
		UnifiedText: unified,
		Segments:    len(segments),
		Requests:    done,
	}, nil
}

// plan 根据片段数量生成步骤列表
func (r *Rewriter) plan(segments []document.Segment) []step {
	if len(segments) <= 1 {
		var text string
		if len(segments) == 1 {
			text = segments[0].Text
		}
		return []step{{
			name: "rewrite",
			run: func(ctx context.Context, _ string) (string, error) {
				return r.gen.generate(ctx, "rewrite", renderPrompt(SimplifyTemplate, map[string]string{
					"Content": text,
				}))
			},
		}}
	}

	steps := make([]step, 0, len(segments)+1)
	for _, seg := range segments {
		seg := seg
		pos := PositionOf(seg)
		name := fmt.Sprintf("rewrite_%s", pos)
		steps = append(steps, step{
			name: name,
			run: func(ctx context.Context, prior string) (string, error) {
				part, err := r.gen.generate(ctx, name, renderPrompt(SegmentTemplate, map[string]string{
					"Framing": pos.framing(),
					"Index":   strconv.Itoa(pos.Index),
					"Total":   strconv.Itoa(pos.Total),
					"Content": seg.Text,
				}))
				if err != nil {
					return "", err
				}
				if prior == "" {
					return part, nil
				}
				return prior + "\n\n" + part, nil
			},
		})
	}

	steps = append(steps, step{
		name: "normalize",
		run: func(ctx context.Context, joined string) (string, error) {
			return r.gen.generate(ctx, "normalize", renderPrompt(NormalizeTemplate, map[string]string{
				"Content": joined,
			}))
		},
	})

	return steps
}
