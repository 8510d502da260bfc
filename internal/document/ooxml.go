package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractOOXMLText 从 Office Open XML 片段中提取文本
// 只收集 <t> 元素的字符数据，每个 <p> 结束时插入 sep
func extractOOXMLText(r io.Reader, sep string) (string, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	var line strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode xml: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(line.String()); text != "" {
					if b.Len() > 0 {
						b.WriteString(sep)
					}
					b.WriteString(text)
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}

	if text := strings.TrimSpace(line.String()); text != "" {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(text)
	}

	return b.String(), nil
}
