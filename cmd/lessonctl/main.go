// lessonctl 在命令行离线生成课程和批改测验
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/lesson"
	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "lessonctl",
	Short:         "Build lessons and grade quizzes from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	llmProvider string
	llmModel    string
	llmAPIKey   string
	llmTimeout  time.Duration
	verbose     bool
)

// newClient 创建文本生成客户端，测试中会被替换
var newClient = func() (llm.Client, error) {
	apiKey := llmAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required (set LLM_API_KEY or use --api-key)")
	}
	return llm.NewClient(llmProvider,
		llm.WithAPIKey(apiKey),
		llm.WithModel(llmModel),
		llm.WithTimeout(llmTimeout),
	)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&llmProvider, "provider", "openrouter", "LLM provider ("+strings.Join(llm.Providers(), "/")+")")
	flags.StringVar(&llmModel, "model", "", "Model name, provider default when empty")
	flags.StringVar(&llmAPIKey, "api-key", "", "API key (overrides LLM_API_KEY env var)")
	flags.DurationVar(&llmTimeout, "timeout", 2*time.Minute, "Per-request timeout")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
}

// newPipeline 按命令行参数组装管线
func newPipeline(stderr io.Writer) (*lesson.Pipeline, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := lesson.DefaultConfig(client)
	cfg.Logger = logger
	return lesson.New(cfg)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
