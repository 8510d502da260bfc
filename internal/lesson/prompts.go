package lesson

import (
	"sort"
	"strings"
)

// SimplifyTemplate 单片段改写提示词模板
// 包含变量：
// {{.Content}} - 原始课程材料
const SimplifyTemplate = `Rewrite the following educational material in clear, simple English for students.

Rules:
- Keep the original structure: headings, lists and the order of topics.
- Retain every key technical term and explain it in parentheses the first time it appears, e.g. "Homeostasis (keeping balance in the body)".
- Do not leave out any concept from the original.
- Return only the rewritten text, with no introduction or closing remarks of your own.

Material:
{{.Content}}`

// SegmentTemplate 多片段改写提示词模板
// 包含变量：
// {{.Framing}} - 片段位置说明
// {{.Index}} / {{.Total}} - 片段序号与总数
// {{.Content}} - 片段文本
const SegmentTemplate = `You are rewriting one part of a longer educational document in clear, simple English for students.
{{.Framing}}

Rules:
- Continue seamlessly from the previous parts; do not summarize or repeat other parts.
- Keep the original structure of this part.
- Retain every key technical term and explain it in parentheses the first time it appears.
- Do not leave out any concept from this part.
- Return only the rewritten content of this part.

Part {{.Index}} of {{.Total}}:
{{.Content}}`

// NormalizeTemplate 合并多片段改写结果的提示词模板
// 包含变量：
// {{.Content}} - 以空行拼接的各片段改写结果
const NormalizeTemplate = `The text below is a simplified lesson that was rewritten in several separate parts and then joined together. Merge it into one cohesive document.

Rules:
- Remove headings and introductions that were duplicated across parts.
- Keep every concept and every explanation in parentheses.
- Keep the simplified wording and do not add new material.
- Return only the cleaned text.

Text:
{{.Content}}`

// QuizTemplate 测验生成提示词模板
// 包含变量：
// {{.Min}} / {{.Max}} - 题目数量范围
// {{.Content}} - 统一改写后的课程文本
const QuizTemplate = `Create a multiple-choice quiz based on the following lesson.

Requirements:
- Write between {{.Min}} and {{.Max}} questions that cover the core concepts of the lesson.
- Each question has exactly four options labeled A), B), C) and D).
- Prefer questions that require reasoning or applying a concept over recalling a single fact.
- Do not copy sentences from the lesson word for word.
- After the options of every question, mark the right option on its own line as "Correct: <letter>".

Lesson:
{{.Content}}`

// FeedbackTemplate 测验反馈提示词模板
// 包含变量：
// {{.Tone}} - 根据得分选择的反馈方向
// {{.Summary}} - 答题结果摘要
const FeedbackTemplate = `Based on the quiz results below, write encouraging feedback for the student in 2-3 sentences.
{{.Tone}}
Keep it positive and educational.

{{.Summary}}`

// ExplanationTemplate 错题解析提示词模板
// 包含变量：
// {{.Question}} / {{.CorrectAnswer}} / {{.UserAnswer}}
const ExplanationTemplate = `Question: {{.Question}}
Correct Answer: {{.CorrectAnswer}}
Student Answer: {{.UserAnswer}}

Provide a brief explanation (1-2 sentences) of why the correct answer is right.`

const (
	improvementTone    = "The student scored below 70%, so point out the areas they should review and how to improve."
	congratulatoryTone = "The student scored 70% or higher, so congratulate them on the result."
)

// renderPrompt 使用变量填充模板
// 替换一次完成，变量值中出现的占位符不会被再次替换
func renderPrompt(tpl string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(vars)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{."+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
