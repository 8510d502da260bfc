package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-lesson-system/internal/document"
	"github.com/fyerfyer/doc-lesson-system/internal/llm"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
)

const (
	// DefaultQuizMin 测验题目数下限
	DefaultQuizMin = 12
	// DefaultQuizMax 测验题目数上限
	DefaultQuizMax = 20
)

// Config 课程生成管线配置
// 必填字段：Client；其余字段为正数，QuizMax 不小于 QuizMin
type Config struct {
	Client         llm.Client     `validate:"required"`         // 文本生成服务
	SegmentChars   int            `validate:"gt=0"`             // 单次请求的字符预算
	SlideChars     int            `validate:"gt=0"`             // 单张幻灯片的字符预算
	QuizMin        int            `validate:"gt=0"`             // 测验题目数下限
	QuizMax        int            `validate:"gtefield=QuizMin"` // 测验题目数上限
	RequestTimeout time.Duration  `validate:"gte=0"`            // 单次生成请求超时，0 表示不限制
	Logger         *logrus.Logger `validate:"-"`                // 日志记录器，可选
}

// DefaultConfig 返回默认配置
func DefaultConfig(client llm.Client) Config {
	return Config{
		Client:       client,
		SegmentChars: document.DefaultSegmentChars,
		SlideChars:   document.DefaultSlideChars,
		QuizMin:      DefaultQuizMin,
		QuizMax:      DefaultQuizMax,
	}
}

var validate = validator.New()

// Validate 校验配置
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return models.NewValidationError("config."+verrs[0].Field(), "failed on the '"+verrs[0].Tag()+"' rule")
		}
		return models.NewValidationError("config", err.Error())
	}
	return nil
}
