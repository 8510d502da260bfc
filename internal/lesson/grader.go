package lesson

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

// PassingPercentage 反馈改为祝贺语气的分数线
const PassingPercentage = 70.0

// QuestionSubmission 学生提交的一道题
type QuestionSubmission struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
}

// QuestionResult 单题评分结果
type QuestionResult struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// GradeReport 测验评分报告
type GradeReport struct {
	Score      int              `json:"score"`
	Total      int              `json:"totalQuestions"`
	Percentage float64          `json:"percentage"`
	Feedback   string           `json:"feedback"`
	Results    []QuestionResult `json:"questionResults"`
}

// Grader 测验评分器
// 得分在本地确定性计算，生成服务只用于反馈和错题解析
type Grader struct {
	gen *generator
}

// NewGrader 创建评分器
func NewGrader(cfg Config) (*Grader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Grader{gen: newGenerator(cfg)}, nil
}

// NormalizeAnswer 规范化答案：去空白、转大写、去掉末尾的右括号
func NormalizeAnswer(answer string) string {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	return strings.TrimSpace(strings.TrimSuffix(answer, ")"))
}

// Percentage 计算百分比并保留一位小数，恰好居中时取偶数；total 为 0 时返回 0
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.RoundToEven(float64(correct)*1000/float64(total)) / 10
}

// FallbackFeedback 生成服务不可用时的反馈
func FallbackFeedback(score, total int) string {
	return fmt.Sprintf("Great job completing the quiz! You scored %d out of %d questions correctly.", score, total)
}

// Grade 评分并补充反馈与错题解析
// 反馈请求失败时使用固定文案；单题解析失败时跳过该题，解析保持为空
func (g *Grader) Grade(ctx context.Context, submission []QuestionSubmission) (*GradeReport, error) {
	report, err := Score(submission)
	if err != nil {
		return nil, err
	}

	feedback, err := g.gen.generate(ctx, "feedback", renderPrompt(FeedbackTemplate, map[string]string{
		"Tone":    feedbackTone(report.Percentage),
		"Summary": Summary(report),
	}))
	if err != nil {
		g.gen.logger.WithFields(logrus.Fields{
			"score": report.Score,
			"total": report.Total,
			"error": err.Error(),
		}).Warn("Feedback generation failed, using fallback feedback")
		feedback = FallbackFeedback(report.Score, report.Total)
	}
	report.Feedback = feedback

	for i := range report.Results {
		result := &report.Results[i]
		if result.IsCorrect {
			continue
		}
		explanation, err := g.gen.generate(ctx, "explanation", renderPrompt(ExplanationTemplate, map[string]string{
			"Question":      result.Question,
			"CorrectAnswer": result.CorrectAnswer,
			"UserAnswer":    result.UserAnswer,
		}))
		if err != nil {
			g.gen.logger.WithFields(logrus.Fields{
				"question_index": i + 1,
				"error":          err.Error(),
			}).Warn("Explanation generation failed, skipping question")
			continue
		}
		result.Explanation = explanation
	}

	return report, nil
}

// Score 只计算得分，不调用生成服务
func Score(submission []QuestionSubmission) (*GradeReport, error) {
	if len(submission) == 0 {
		return nil, models.NewValidationError("questions", "no questions provided")
	}

	results := make([]QuestionResult, 0, len(submission))
	correct := 0
	for _, q := range submission {
		user := NormalizeAnswer(q.UserAnswer)
		expected := NormalizeAnswer(q.CorrectAnswer)
		isCorrect := user == expected
		if isCorrect {
			correct++
		}
		results = append(results, QuestionResult{
			Question:      q.Question,
			UserAnswer:    user,
			CorrectAnswer: expected,
			IsCorrect:     isCorrect,
		})
	}

	return &GradeReport{
		Score:      correct,
		Total:      len(submission),
		Percentage: Percentage(correct, len(submission)),
		Results:    results,
	}, nil
}

// Summary 生成按题号排列的结果摘要（题号从1开始）
func Summary(report *GradeReport) string {
	var b strings.Builder
	b.WriteString("Student Quiz Results:\n")
	fmt.Fprintf(&b, "- Score: %d/%d (%.1f%%)\n", report.Score, report.Total, report.Percentage)
	b.WriteString("- Questions and Answers:\n")

	for i, r := range report.Results {
		status := "Incorrect"
		if r.IsCorrect {
			status = "Correct"
		}
		fmt.Fprintf(&b, "\n%d. %s\n   Student answered: %s\n   Correct answer: %s\n   Result: %s\n",
			i+1, r.Question, r.UserAnswer, r.CorrectAnswer, status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func feedbackTone(percentage float64) string {
	if percentage < PassingPercentage {
		return improvementTone
	}
	return congratulatoryTone
}
