package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

const (
	exportFont       = "Helvetica"
	exportLineHeight = 6.0
)

// ExportPDF 把已完成的课程导出为PDF，依次写入标题、幻灯片和测验
func (s *LessonService) ExportPDF(ctx context.Context, lessonID string, w io.Writer) error {
	l, err := s.GetLesson(ctx, lessonID)
	if err != nil {
		return err
	}
	if l.Status != models.LessonStatusCompleted {
		return fmt.Errorf("%w: lesson %s is %s, export requires completed", models.ErrInvalidLessonStatus, lessonID, l.Status)
	}

	pdf := RenderLessonPDF(l)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"lesson_id": lessonID,
		"pages":     pdf.PageCount(),
	}).Info("Lesson exported")
	return nil
}

// RenderLessonPDF 排版课程内容
// 内置字体只支持 cp1252，无法编码的字符会被替换
func RenderLessonPDF(l *models.Lesson) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(l.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(exportFont, "B", 18)
	pdf.MultiCell(0, 10, tr(l.Title), "", "L", false)
	pdf.Ln(4)

	for i, slide := range l.SlideList() {
		pdf.SetFont(exportFont, "B", 13)
		pdf.CellFormat(0, 8, fmt.Sprintf("Slide %d", i+1), "", 1, "L", false, 0, "")
		pdf.SetFont(exportFont, "", 11)
		pdf.MultiCell(0, exportLineHeight, tr(slide), "", "L", false)
		pdf.Ln(3)
	}

	if quiz := strings.TrimSpace(l.Quiz); quiz != "" {
		pdf.AddPage()
		pdf.SetFont(exportFont, "B", 15)
		pdf.CellFormat(0, 10, "Quiz", "", 1, "L", false, 0, "")
		pdf.SetFont(exportFont, "", 11)
		for _, line := range strings.Split(quiz, "\n") {
			pdf.MultiCell(0, exportLineHeight, tr(strings.TrimRight(line, " \r")), "", "L", false)
		}
	}

	return pdf
}
