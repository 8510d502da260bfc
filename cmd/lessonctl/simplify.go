package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyerfyer/doc-lesson-system/internal/document"
	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/spf13/cobra"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify",
	Short: "Turn a document into slides and a quiz",
	Long:  "Extracts text from a source file (or takes it inline), rewrites it for learners, splits it into slides and generates a multiple-choice quiz.",
	RunE:  runSimplify,
}

var (
	simplifyTitle string
	simplifyFile  string
	simplifyText  string
	simplifyOut   string
)

// lessonOutput 命令输出
type lessonOutput struct {
	Title        string   `json:"title"`
	Topic        []string `json:"topic"`
	Quiz         string   `json:"quiz"`
	SegmentCount int      `json:"segmentCount"`
	Requests     int      `json:"requests"`
}

func init() {
	simplifyCmd.Flags().StringVarP(&simplifyTitle, "title", "t", "", "Lesson title (required)")
	simplifyCmd.Flags().StringVarP(&simplifyFile, "file", "f", "", "Source document (.txt, .md, .pdf, .docx, .pptx)")
	simplifyCmd.Flags().StringVar(&simplifyText, "text", "", "Source text, takes precedence over --file")
	simplifyCmd.Flags().StringVarP(&simplifyOut, "out", "o", "", "Write JSON to this path instead of stdout")

	if err := simplifyCmd.MarkFlagRequired("title"); err != nil {
		panic(fmt.Sprintf("failed to mark title flag as required: %v", err))
	}

	rootCmd.AddCommand(simplifyCmd)
}

func runSimplify(cmd *cobra.Command, _ []string) error {
	content := simplifyText
	if content == "" {
		if simplifyFile == "" {
			return fmt.Errorf("provide either --text or --file")
		}
		f, err := os.Open(simplifyFile)
		if err != nil {
			return fmt.Errorf("failed to open source file: %w", err)
		}
		defer f.Close()

		content, err = document.ExtractText(f, filepath.Base(simplifyFile))
		if err != nil {
			return err
		}
	}

	pipeline, err := newPipeline(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	draft, err := pipeline.CreateLesson(cmd.Context(), simplifyTitle, content)
	if err != nil {
		return err
	}

	return writeJSON(cmd, simplifyOut, newLessonOutput(draft))
}

func newLessonOutput(draft *lesson.Draft) lessonOutput {
	return lessonOutput{
		Title:        draft.Title,
		Topic:        draft.Slides,
		Quiz:         draft.Quiz,
		SegmentCount: draft.SegmentCount,
		Requests:     draft.Requests,
	}
}

// writeJSON 把结果写到文件或标准输出
func writeJSON(cmd *cobra.Command, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if path == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := writeJSONFile(path, v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

// writeJSONFile 写出缩进的JSON文件，目录不存在时创建
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
