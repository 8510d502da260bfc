package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fyerfyer/doc-lesson-system/internal/document"
	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/gammazero/workerpool"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build one lesson per document in a directory",
	Long:  "Builds a lesson for every supported document in --dir and writes <file>.json (extension kept, e.g. notes.pdf.json) into --out. Each document is an independent pipeline run; --workers runs are in flight at once.",
	RunE:  runBatch,
}

var (
	batchDir     string
	batchOut     string
	batchWorkers int
)

// batchResult 单个文件的处理结果
type batchResult struct {
	File   string
	Output string
	Err    error
}

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory of source documents (required)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Output directory (required)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 2, "Number of lessons built at once")

	if err := batchCmd.MarkFlagRequired("dir"); err != nil {
		panic(fmt.Sprintf("failed to mark dir flag as required: %v", err))
	}
	if err := batchCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCmd)
}

// collectSources 列出目录中可解析的文档，按文件名排序
func collectSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := document.ParserFactory(entry.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	files, err := collectSources(batchDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents in %s", batchDir)
	}
	if err := os.MkdirAll(batchOut, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pipeline, err := newPipeline(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = 1
	}

	results := make([]batchResult, len(files))
	var mu sync.Mutex
	wp := workerpool.New(workers)

	for i, file := range files {
		i, file := i, file
		wp.Submit(func() {
			res := buildOne(cmd.Context(), pipeline, file)
			mu.Lock()
			results[i] = res
			mu.Unlock()
		})
	}
	wp.StopWait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", res.File, res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK   %s -> %s\n", res.File, res.Output)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

// buildOne 生成单个文件的课程并写出JSON
func buildOne(ctx context.Context, pipeline *lesson.Pipeline, file string) batchResult {
	res := batchResult{File: file}

	f, err := os.Open(file)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	name := filepath.Base(file)
	content, err := document.ExtractText(f, name)
	if err != nil {
		res.Err = err
		return res
	}

	title := strings.TrimSuffix(name, filepath.Ext(name))
	draft, err := pipeline.CreateLesson(ctx, title, content)
	if err != nil {
		res.Err = err
		return res
	}

	res.Output = filepath.Join(batchOut, name+".json")
	res.Err = writeJSONFile(res.Output, newLessonOutput(draft))
	return res
}
