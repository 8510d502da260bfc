package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DocxParser Word文档解析器
type DocxParser struct{}

// NewDocxParser 创建Word文档解析器
func NewDocxParser() Parser {
	return &DocxParser{}
}

// Parse 解析docx文件
func (p *DocxParser) Parse(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open docx file: %v", err)
	}
	defer r.Close()

	return docxText(r)
}

// ParseReader 从Reader解析docx内容
func (p *DocxParser) ParseReader(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read docx content: %v", err)
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %v", err)
	}
	defer doc.Close()

	return docxText(doc)
}

// docxText 段落之间以空行分隔
func docxText(r *docx.ReplaceDocx) (string, error) {
	content := r.Editable().GetContent()
	return extractOOXMLText(strings.NewReader(content), "\n\n")
}
