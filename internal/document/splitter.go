package document

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSegmentChars 单次模型请求允许的最大字符数
	DefaultSegmentChars = 12000

	// paragraphJoinerLen 段落之间连接符 "\n\n" 的长度
	paragraphJoinerLen = 2
)

// paragraphBreak 匹配两个及以上的换行（兼容 CRLF）
var paragraphBreak = regexp.MustCompile(`(\r?\n){2,}`)

// Segment 表示一个模型安全的文本片段
type Segment struct {
	Text  string // 片段文本
	Index int    // 片段索引（从0开始）
	Total int    // 片段总数
}

// Splitter 文本分段器接口
// 负责将长文本切分成单次模型请求可以容纳的片段
type Splitter interface {
	// Split 将文本切分为片段
	Split(text string) []Segment
}

// ModelSafeSplitter 按段落边界切分文本，保证每段不超过字符预算
type ModelSafeSplitter struct {
	maxChars int
}

// NewModelSafeSplitter 创建新的分段器，maxChars<=0 时使用默认值
func NewModelSafeSplitter(maxChars int) *ModelSafeSplitter {
	if maxChars <= 0 {
		maxChars = DefaultSegmentChars
	}
	return &ModelSafeSplitter{maxChars: maxChars}
}

// MaxChars 返回字符预算
func (s *ModelSafeSplitter) MaxChars() int {
	return s.maxChars
}

// Split 将文本切分为片段
func (s *ModelSafeSplitter) Split(text string) []Segment {
	// 短文本直接返回原文
	if utf8.RuneCountInString(text) <= s.maxChars {
		return buildSegments([]string{text})
	}

	chunks := s.mergeParagraphs(splitByParagraph(text))
	chunks = s.handleLargeChunks(chunks)

	return buildSegments(chunks)
}

// SplitText 使用给定预算切分文本
func SplitText(text string, maxChars int) []Segment {
	return NewModelSafeSplitter(maxChars).Split(text)
}

// splitByParagraph 按段落分割文本，丢弃空白段落
func splitByParagraph(text string) []string {
	paragraphs := paragraphBreak.Split(text, -1)

	var result []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		result = append(result, p)
	}

	return result
}

// mergeParagraphs 贪心合并段落
// 每个段落计入字符数+2 的连接开销
func (s *ModelSafeSplitter) mergeParagraphs(paragraphs []string) []string {
	var result []string
	var current []string
	currentLen := 0

	for _, p := range paragraphs {
		candidateLen := utf8.RuneCountInString(p) + paragraphJoinerLen
		if currentLen+candidateLen > s.maxChars && len(current) > 0 {
			result = append(result, strings.Join(current, "\n\n"))
			current = current[:0]
			currentLen = 0
		}
		current = append(current, p)
		currentLen += candidateLen
	}

	if len(current) > 0 {
		result = append(result, strings.Join(current, "\n\n"))
	}

	return result
}

// handleLargeChunks 对超长片段按字符预算硬切，切点总在字符边界上
func (s *ModelSafeSplitter) handleLargeChunks(chunks []string) []string {
	var result []string

	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) <= s.maxChars {
			result = append(result, chunk)
			continue
		}
		runes := []rune(chunk)
		for start := 0; start < len(runes); start += s.maxChars {
			end := start + s.maxChars
			if end > len(runes) {
				end = len(runes)
			}
			result = append(result, string(runes[start:end]))
		}
	}

	return result
}

func buildSegments(chunks []string) []Segment {
	segments := make([]Segment, 0, len(chunks))
	for i, chunk := range chunks {
		segments = append(segments, Segment{
			Text:  chunk,
			Index: i,
			Total: len(chunks),
		})
	}
	return segments
}
