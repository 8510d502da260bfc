package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

func TestParserReaderImplementations(t *testing.T) {
	// 测试纯文本解析器
	t.Run("PlainText", func(t *testing.T) {
		content := "Hello, this is plain text."
		result, err := NewPlainTextParser().ParseReader(strings.NewReader(content), "test.txt")

		assert.NoError(t, err)
		assert.Equal(t, content, result)
	})

	// 测试Markdown解析器
	t.Run("Markdown", func(t *testing.T) {
		content := "# Heading\n\nThis is **markdown** text with a [link](http://example.com)."
		result, err := NewMarkdownParser().ParseReader(strings.NewReader(content), "test.md")

		assert.NoError(t, err)
		assert.Contains(t, result, "Heading")
		assert.Contains(t, result, "markdown text with a link.")
	})

	t.Run("PDF", func(t *testing.T) {
		data := createPDFBytes(t, "Reader based PDF")
		result, err := NewPDFParser().ParseReader(bytes.NewReader(data), "test.pdf")

		assert.NoError(t, err)
		assert.Contains(t, result, "Reader based PDF")
	})

	t.Run("Docx", func(t *testing.T) {
		data := createDocxBytes(t, "First &amp; foremost", "Second")
		result, err := NewDocxParser().ParseReader(bytes.NewReader(data), "test.docx")

		assert.NoError(t, err)
		assert.Equal(t, "First & foremost\n\nSecond", result)
	})

	t.Run("Pptx", func(t *testing.T) {
		result, err := NewPptxParser().ParseReader(bytes.NewReader(createPptxBytes(t)), "deck.pptx")

		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(result, "Intro to cells"))
	})
}

func TestExtractText(t *testing.T) {
	t.Run("trims content", func(t *testing.T) {
		text, err := ExtractText(strings.NewReader("\n  Mitosis basics  \n"), "cells.txt")
		require.NoError(t, err)
		assert.Equal(t, "Mitosis basics", text)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := ExtractText(strings.NewReader("   "), "empty.txt")
		require.Error(t, err)
		assert.True(t, models.IsValidationError(err))
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := ExtractText(strings.NewReader("binary"), "deck.ppt")
		require.Error(t, err)
		assert.True(t, models.IsUnsupportedSource(err))
	})
}
