package lesson

import (
	"fmt"

	"github.com/fyerfyer/doc-lesson-system/internal/document"
)

// PositionKind 片段在文档中的位置类型
type PositionKind int

const (
	// First 第一个片段
	First PositionKind = iota
	// Middle 中间片段
	Middle
	// Last 最后一个片段
	Last
)

// Position 片段位置，Middle 时携带序号（从1开始）与总数
type Position struct {
	Kind  PositionKind
	Index int
	Total int
}

// PositionOf 根据片段索引确定其位置
// 调用方只在多片段路径上使用，Total 至少为 2
func PositionOf(seg document.Segment) Position {
	switch {
	case seg.Index == 0:
		return Position{Kind: First, Index: 1, Total: seg.Total}
	case seg.Index == seg.Total-1:
		return Position{Kind: Last, Index: seg.Total, Total: seg.Total}
	default:
		return Position{Kind: Middle, Index: seg.Index + 1, Total: seg.Total}
	}
}

func (p Position) String() string {
	switch p.Kind {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return fmt.Sprintf("middle(%d/%d)", p.Index, p.Total)
	}
}

// framing 返回写入提示词的位置说明
func (p Position) framing() string {
	switch p.Kind {
	case First:
		return "This is the FIRST part of the document. You may open with a short introduction, but do not write a conclusion."
	case Last:
		return "This is the LAST part of the document. Do not write an introduction. You may finish with a brief conclusion."
	default:
		return fmt.Sprintf("This is a MIDDLE part (part %d of %d) of the document. Do not write an introduction or a conclusion.", p.Index, p.Total)
	}
}
