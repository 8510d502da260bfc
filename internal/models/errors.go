package models

import (
	"errors"
	"fmt"
)

var (
	// ErrLessonNotFound 课程不存在错误
	ErrLessonNotFound = errors.New("lesson not found")

	// ErrInvalidLessonStatus 无效的课程状态错误
	ErrInvalidLessonStatus = errors.New("invalid lesson status")

	// ErrAttemptNotFound 答题记录不存在
	ErrAttemptNotFound = errors.New("quiz attempt not found")

	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists 用户名或邮箱已被占用
	ErrUserExists = errors.New("username or email already registered")

	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError 输入校验错误
// 在发起任何模型请求之前返回
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError 创建输入校验错误
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UnsupportedSourceError 不支持的文档来源
type UnsupportedSourceError struct {
	Source string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Source)
}

// NewUnsupportedSourceError 创建不支持来源错误
func NewUnsupportedSourceError(source string) error {
	return &UnsupportedSourceError{Source: source}
}

// GenerationError 文本生成失败
// Step 标识失败的步骤，例如 "rewrite_first"、"normalize"、"quiz"
type GenerationError struct {
	Step string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError 包装一次生成失败
func NewGenerationError(step string, err error) error {
	return &GenerationError{Step: step, Err: err}
}

// IsValidationError 判断是否为输入校验错误
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsUnsupportedSource 判断是否为不支持的来源错误
func IsUnsupportedSource(err error) bool {
	var target *UnsupportedSourceError
	return errors.As(err, &target)
}

// IsGenerationError 判断是否为生成失败
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
