package document

import (
	"strings"
	"unicode/utf8"
)

// DefaultSlideChars 单张幻灯片的默认字符上限
const DefaultSlideChars = 400

// Slide 展示用的文本块
type Slide struct {
	Text  string // 幻灯片文本
	Order int    // 展示顺序（从0开始）
}

// Chunk 按空白分词后贪心组装幻灯片，长度按字符计
// 单词不会被截断，超长单词独占一张幻灯片；空输入返回空切片
func Chunk(text string, maxChars int) []Slide {
	if maxChars <= 0 {
		maxChars = DefaultSlideChars
	}

	words := strings.Fields(text)
	slides := make([]Slide, 0)

	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		slides = append(slides, Slide{
			Text:  strings.Join(current, " "),
			Order: len(slides),
		})
		current = current[:0]
		currentLen = 0
	}

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		// 模拟加入该词后的拼接长度
		joined := currentLen + wordLen
		if len(current) > 0 {
			joined++
		}
		if joined > maxChars && len(current) > 0 {
			flush()
			joined = wordLen
		}
		current = append(current, word)
		currentLen = joined
	}
	flush()

	return slides
}

// SlideTexts 提取幻灯片文本
func SlideTexts(slides []Slide) []string {
	texts := make([]string, 0, len(slides))
	for _, s := range slides {
		texts = append(texts, s.Text)
	}
	return texts
}
