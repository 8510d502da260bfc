package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

// Parser 文档解析器接口
// 负责将不同格式的课程材料解析为纯文本
type Parser interface {
	// Parse 解析文档，返回文本内容
	Parse(filePath string) (string, error)

	// ParseReader 从Reader解析文档，返回文本内容
	// filename用于确定文档类型
	ParseReader(r io.Reader, filename string) (string, error)
}

// ContentType 表示文档的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Word docx 文档
	Word ContentType = "docx"
	// Slides pptx 演示文稿
	Slides ContentType = "pptx"
	// LegacySlides 旧版二进制 ppt，不支持
	LegacySlides ContentType = "ppt"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	contentType := DetectContentType(filePath)

	switch contentType {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	case Word:
		return NewDocxParser(), nil
	case Slides:
		return NewPptxParser(), nil
	default:
		return nil, models.NewUnsupportedSourceError(filepath.Ext(filePath))
	}
}

// DetectContentType 根据文件扩展名检测内容类型
func DetectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	case ".docx":
		return Word
	case ".pptx":
		return Slides
	case ".ppt":
		return LegacySlides
	default:
		return Unknown
	}
}

// IsSupported 判断文件扩展名是否可以被解析
func IsSupported(filename string) bool {
	switch DetectContentType(filename) {
	case PDF, Markdown, PlainText, Word, Slides:
		return true
	default:
		return false
	}
}

// ExtractText 从Reader中提取课程材料的纯文本
func ExtractText(r io.Reader, filename string) (string, error) {
	parser, err := ParserFactory(filename)
	if err != nil {
		return "", err
	}

	text, err := parser.ParseReader(r, filename)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("file", "no text content found in "+filepath.Base(filename))
	}
	return text, nil
}

// openFile 打开文件并交给 ParseReader 处理
func openFile(p Parser, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}
