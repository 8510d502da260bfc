package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/spf13/cobra"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a quiz submission",
	Long:  `Reads {"questions":[{"question","userAnswer","correctAnswer"}]} from a file (or stdin with "-") and prints the graded report.`,
	RunE:  runGrade,
}

var (
	gradeIn  string
	gradeOut string
)

// gradeInput 提交文件格式，与 HTTP 接口的请求体一致
type gradeInput struct {
	Questions []lesson.QuestionSubmission `json:"questions"`
}

func init() {
	gradeCmd.Flags().StringVarP(&gradeIn, "in", "i", "", `Submission JSON file, "-" for stdin (required)`)
	gradeCmd.Flags().StringVarP(&gradeOut, "out", "o", "", "Write JSON to this path instead of stdout")

	if err := gradeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(gradeCmd)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	var (
		data []byte
		err  error
	)
	if gradeIn == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(gradeIn)
	}
	if err != nil {
		return fmt.Errorf("failed to read submission: %w", err)
	}

	var input gradeInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to unmarshal submission JSON: %w", err)
	}

	pipeline, err := newPipeline(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	report, err := pipeline.GradeQuiz(cmd.Context(), input.Questions)
	if err != nil {
		return err
	}
	return writeJSON(cmd, gradeOut, report)
}
