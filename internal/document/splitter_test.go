package document

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildParagraphs 生成 n 个长度为 size 的段落
func buildParagraphs(n, size int, sep string) string {
	paragraphs := make([]string, n)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat(string(rune('a'+i%26)), size)
	}
	return strings.Join(paragraphs, sep)
}

// TestSplitFastPath 测试短文本直接返回
func TestSplitFastPath(t *testing.T) {
	splitter := NewModelSafeSplitter(100)

	t.Run("short text returned verbatim", func(t *testing.T) {
		text := "Photosynthesis converts light into chemical energy.\n\n\n  trailing  "
		segments := splitter.Split(text)
		require.Len(t, segments, 1)
		assert.Equal(t, text, segments[0].Text)
		assert.Equal(t, 0, segments[0].Index)
		assert.Equal(t, 1, segments[0].Total)
	})

	t.Run("exactly at budget", func(t *testing.T) {
		text := strings.Repeat("x", 100)
		segments := splitter.Split(text)
		require.Len(t, segments, 1)
		assert.Equal(t, text, segments[0].Text)
	})

	t.Run("default budget", func(t *testing.T) {
		assert.Equal(t, DefaultSegmentChars, NewModelSafeSplitter(0).MaxChars())
		assert.Equal(t, DefaultSegmentChars, NewModelSafeSplitter(-5).MaxChars())
	})
}

// TestSplitByParagraph 测试按段落合并
func TestSplitByParagraph(t *testing.T) {
	t.Run("paragraphs merged under budget", func(t *testing.T) {
		// 每段 30 字符，计入开销后 32，预算 70 可容纳 2 段
		text := buildParagraphs(5, 30, "\n\n")
		segments := SplitText(text, 70)

		require.Len(t, segments, 3)
		assert.Equal(t, strings.Repeat("a", 30)+"\n\n"+strings.Repeat("b", 30), segments[0].Text)
		assert.Equal(t, strings.Repeat("e", 30), segments[2].Text)
		for i, seg := range segments {
			assert.Equal(t, i, seg.Index)
			assert.Equal(t, 3, seg.Total)
		}
	})

	t.Run("joiner overhead counted", func(t *testing.T) {
		// 每段 49 字符：49+2+49+2=102 > 100，不能合并
		text := buildParagraphs(3, 49, "\n\n")
		segments := SplitText(text, 100)
		require.Len(t, segments, 3)

		// 每段 48 字符：48+2+48+2=100，刚好合并
		text = buildParagraphs(3, 48, "\n\n")
		segments = SplitText(text, 100)
		require.Len(t, segments, 2)
		assert.Contains(t, segments[0].Text, "\n\n")
	})

	t.Run("crlf and blank paragraphs", func(t *testing.T) {
		text := strings.Repeat("a", 40) + "\r\n\r\n   \r\n\r\n" + strings.Repeat("b", 40) + "\n\n\n\n" + strings.Repeat("c", 40)
		segments := SplitText(text, 50)

		require.Len(t, segments, 3)
		for _, seg := range segments {
			assert.NotEmpty(t, strings.TrimSpace(seg.Text))
			assert.NotContains(t, seg.Text, "\r")
		}
		t.Logf("段落数量: %d", len(segments))
	})

	t.Run("single newline keeps paragraph together", func(t *testing.T) {
		text := strings.Repeat("a", 30) + "\n" + strings.Repeat("b", 30) + "\n\n" + strings.Repeat("c", 30)
		segments := SplitText(text, 64)
		require.Len(t, segments, 2)
		assert.Equal(t, strings.Repeat("a", 30)+"\n"+strings.Repeat("b", 30), segments[0].Text)
	})
}

// TestSplitHardCut 测试超长段落被硬切
func TestSplitHardCut(t *testing.T) {
	text := strings.Repeat("z", 250) + "\n\n" + "tail"
	segments := SplitText(text, 100)

	require.Len(t, segments, 4)
	assert.Len(t, segments[0].Text, 100)
	assert.Len(t, segments[1].Text, 100)
	assert.Len(t, segments[2].Text, 50)
	assert.Equal(t, "tail", segments[3].Text)
}

// TestSplitMultiByte 测试多字节文本按字符计数并在字符边界切分
func TestSplitMultiByte(t *testing.T) {
	t.Run("hard cut keeps characters whole", func(t *testing.T) {
		segments := SplitText(strings.Repeat("é", 20), 5)

		require.Len(t, segments, 4)
		for _, seg := range segments {
			assert.True(t, utf8.ValidString(seg.Text))
			assert.Equal(t, "ééééé", seg.Text)
		}
	})

	t.Run("long paragraph with mixed text", func(t *testing.T) {
		paragraph := strings.Repeat("Ça “marche” … 光合作用。", 300)
		text := "intro\n\n" + paragraph + "\n\noutro"
		const budget = 1000

		segments := SplitText(text, budget)
		require.Greater(t, len(segments), 1)

		var rebuilt strings.Builder
		for _, seg := range segments {
			assert.True(t, utf8.ValidString(seg.Text))
			assert.LessOrEqual(t, utf8.RuneCountInString(seg.Text), budget)
			rebuilt.WriteString(seg.Text)
		}
		assert.Equal(t, strings.ReplaceAll(text, "\n", ""), strings.ReplaceAll(rebuilt.String(), "\n", ""))
	})

	t.Run("fast path counts characters", func(t *testing.T) {
		text := strings.Repeat("中", 100)
		require.Greater(t, len(text), 100)

		segments := SplitText(text, 100)
		require.Len(t, segments, 1)
		assert.Equal(t, text, segments[0].Text)
	})
}

// TestSplitProperties 测试大小上限与内容完整性
func TestSplitProperties(t *testing.T) {
	text := buildParagraphs(40, 777, "\n\n") + "\n\n" + strings.Repeat("q", 2500)
	const budget = 1200

	segments := SplitText(text, budget)
	require.NotEmpty(t, segments)

	var rebuilt strings.Builder
	for _, seg := range segments {
		assert.LessOrEqual(t, len(seg.Text), budget)
		assert.Equal(t, len(segments), seg.Total)
		rebuilt.WriteString(seg.Text)
	}

	// 去掉段落分隔后内容不丢失、顺序不变
	original := strings.ReplaceAll(text, "\n", "")
	assert.Equal(t, original, strings.ReplaceAll(rebuilt.String(), "\n", ""))
}

// TestSplitLargeDocument 测试 30000 字符文档至少切成 3 段
func TestSplitLargeDocument(t *testing.T) {
	text := buildParagraphs(60, 500, "\n\n")
	require.Greater(t, len(text), 30000)

	segments := SplitText(text, DefaultSegmentChars)
	assert.GreaterOrEqual(t, len(segments), 3)
	for _, seg := range segments {
		assert.LessOrEqual(t, len(seg.Text), DefaultSegmentChars)
	}
}
