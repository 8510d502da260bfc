package handler

import (
	"net/http"

	"github.com/fyerfyer/doc-lesson-system/api/middleware"
	"github.com/fyerfyer/doc-lesson-system/api/model"
	"github.com/fyerfyer/doc-lesson-system/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler 处理账号相关的API请求
type AuthHandler struct {
	userService *services.UserService
	logger      *logrus.Logger
}

// NewAuthHandler 创建账号处理器
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      middleware.GetLogger(),
	}
}

// Register 注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request body", err.Error()))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse(model.NewUserResponse(user)))
}

// Login 登录并签发令牌
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.LoginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
		User:      model.NewUserResponse(result.User),
	}))
}

// Profile 当前用户资料
// GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.userService.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		middleware.HandleError(c, middleware.FromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewUserResponse(user)))
}

// Logout 退出登录
// 令牌无服务端状态，由客户端丢弃
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.logger.WithField(middleware.FieldUserID, middleware.UserID(c)).Info("User logged out")
	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"logged_out": true}))
}
