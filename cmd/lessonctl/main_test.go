package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const cliQuiz = "1. What falls from clouds?\nA) Rain\nB) Rocks\nC) Sand\nD) Fire\nCorrect: A"

// useMockClient 替换生成客户端
func useMockClient(t *testing.T) {
	client := llm.NewMockClient(t)
	client.EXPECT().Generate(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, prompt string, _ ...llm.GenerateOption) (*llm.Response, error) {
			switch {
			case strings.HasPrefix(prompt, "Create a multiple-choice quiz"):
				return &llm.Response{Text: cliQuiz}, nil
			case strings.HasPrefix(prompt, "Based on the quiz results"):
				return &llm.Response{Text: "Nice work."}, nil
			case strings.HasPrefix(prompt, "Question:"):
				return &llm.Response{Text: "Rain is water from clouds."}, nil
			default:
				return &llm.Response{Text: "Rain is water that falls from clouds."}, nil
			}
		}).Maybe()

	original := newClient
	newClient = func() (llm.Client, error) { return client, nil }
	t.Cleanup(func() { newClient = original })
}

// execute 运行命令并返回标准输出
func execute(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSimplify(t *testing.T) {
	useMockClient(t)

	t.Run("inline text", func(t *testing.T) {
		out, err := execute(t, "simplify", "--title", "Rain", "--text", "Precipitation occurs when droplets coalesce.", "--file", "", "--out", "")
		require.NoError(t, err)

		var got lessonOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "Rain", got.Title)
		assert.Equal(t, []string{"Rain is water that falls from clouds."}, got.Topic)
		assert.Equal(t, cliQuiz, got.Quiz)
		assert.Equal(t, 1, got.SegmentCount)
	})

	t.Run("file to output path", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "rain.md")
		require.NoError(t, os.WriteFile(src, []byte("# Rain\n\nDroplets coalesce and fall."), 0644))
		dst := filepath.Join(dir, "out", "lesson.json")

		_, err := execute(t, "simplify", "--title", "Rain", "--text", "", "--file", src, "--out", dst)
		require.NoError(t, err)

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		var got lessonOutput
		require.NoError(t, json.Unmarshal(data, &got))
		assert.NotEmpty(t, got.Topic)
	})

	t.Run("no source", func(t *testing.T) {
		_, err := execute(t, "simplify", "--title", "Rain", "--text", "", "--file", "", "--out", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--text or --file")
	})

	t.Run("unsupported file", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "deck.ppt")
		require.NoError(t, os.WriteFile(src, []byte("binary"), 0644))

		_, err := execute(t, "simplify", "--title", "Deck", "--text", "", "--file", src, "--out", "")
		require.Error(t, err)
	})
}

func TestGrade(t *testing.T) {
	useMockClient(t)

	in := filepath.Join(t.TempDir(), "submission.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"questions":[
		{"question":"What falls from clouds?","userAnswer":"a)","correctAnswer":"A"},
		{"question":"What color is rain?","userAnswer":"B","correctAnswer":"C"},
		{"question":"Is rain wet?","userAnswer":"a","correctAnswer":"A"}
	]}`), 0644))

	out, err := execute(t, "grade", "--in", in, "--out", "")
	require.NoError(t, err)

	var report lesson.GradeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Score)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 66.7, report.Percentage)
	assert.Equal(t, "Nice work.", report.Feedback)
	require.Len(t, report.Results, 3)
	assert.Empty(t, report.Results[0].Explanation)
	assert.Equal(t, "Rain is water from clouds.", report.Results[1].Explanation)
}

func TestGradeRejectsBadJSON(t *testing.T) {
	useMockClient(t)

	in := filepath.Join(t.TempDir(), "submission.json")
	require.NoError(t, os.WriteFile(in, []byte(`not json`), 0644))

	_, err := execute(t, "grade", "--in", in, "--out", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestBatch(t *testing.T) {
	useMockClient(t)

	src := t.TempDir()
	for name, body := range map[string]string{
		"rain.txt":  "Rain falls from clouds.",
		"rain.md":   "# Rain\n\nRain is liquid water.",
		"snow.md":   "# Snow\n\nSnow is frozen rain.",
		"notes.ppt": "legacy binary",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(body), 0644))
	}
	out := filepath.Join(t.TempDir(), "lessons")

	stdout, err := execute(t, "batch", "--dir", src, "--out", out, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rain.txt")
	assert.Contains(t, stdout, "snow.md")
	assert.NotContains(t, stdout, "notes.ppt")

	// 同名不同扩展名的文件各自输出
	for _, name := range []string{"rain.txt.json", "rain.md.json", "snow.md.json"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err)

		var got lessonOutput
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, cliQuiz, got.Quiz)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
