package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// PptxParser PowerPoint演示文稿解析器
type PptxParser struct{}

// NewPptxParser 创建演示文稿解析器
func NewPptxParser() Parser {
	return &PptxParser{}
}

// Parse 解析pptx文件
func (p *PptxParser) Parse(filePath string) (string, error) {
	return openFile(p, filePath)
}

// ParseReader 从Reader解析pptx内容
// 幻灯片按编号排序，幻灯片之间以空行分隔
func (p *PptxParser) ParseReader(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read pptx content: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pptx: %v", err)
	}

	var slides []*zip.File
	for _, f := range zr.File {
		if slideNumber(f.Name) > 0 {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var texts []string
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %v", f.Name, err)
		}
		text, err := extractOOXMLText(rc, " ")
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %v", f.Name, err)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n\n"), nil
}

// slideNumber 解析 ppt/slides/slideN.xml 中的 N，不匹配时返回 0
func slideNumber(name string) int {
	if path.Dir(name) != "ppt/slides" {
		return 0
	}
	base := path.Base(name)
	if !strings.HasPrefix(base, "slide") || !strings.HasSuffix(base, ".xml") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, "slide"), ".xml"))
	if err != nil {
		return 0
	}
	return n
}
