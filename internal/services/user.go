package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/auth"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/fyerfyer/doc-lesson-system/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RegisterInput 注册输入
type RegisterInput struct {
	Username  string `validate:"required,min=3,max=150"`
	Email     string `validate:"required,email,max=254"`
	Password  string `validate:"required"`
	Password2 string `validate:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// UserService 用户服务
// 负责注册、登录和令牌签发
type UserService struct {
	repo     repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenManager
	validate *validator.Validate
	logger   *logrus.Logger
}

// UserOption 用户服务配置选项
type UserOption func(*UserService)

// WithUserLogger 设置日志记录器
func WithUserLogger(logger *logrus.Logger) UserOption {
	return func(s *UserService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHasher 设置密码哈希器
func WithHasher(h *auth.Hasher) UserOption {
	return func(s *UserService) {
		if h != nil {
			s.hasher = h
		}
	}
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, tokens *auth.TokenManager, opts ...UserOption) *UserService {
	srv := &UserService{
		repo:     repo,
		tokens:   tokens,
		hasher:   auth.NewHasher(0),
		validate: validator.New(),
		logger:   logrus.New(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Tokens 返回令牌管理器
func (s *UserService) Tokens() *auth.TokenManager {
	return s.tokens
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, models.NewValidationError(strings.ToLower(fe.Field()), fmt.Sprintf("failed on '%s' rule", fe.Tag()))
		}
		return nil, models.NewValidationError("", err.Error())
	}
	if in.Password != in.Password2 {
		return nil, models.NewValidationError("password2", "passwords do not match")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, models.NewValidationError("password", err.Error())
		}
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	return user, nil
}

// Login 校验用户名和密码并签发令牌
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.WithField("username", username).Warn("Login rejected")
		return nil, models.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Profile 获取用户资料
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetByID(userID)
}
