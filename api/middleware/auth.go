package middleware

import (
	"strings"

	"github.com/fyerfyer/doc-lesson-system/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	// userIDKey 当前用户ID在gin上下文中的键
	userIDKey = "UserID"
	// usernameKey 当前用户名在gin上下文中的键
	usernameKey = "Username"
)

// RequireAuth 校验 Bearer 令牌，未通过时返回401
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, tokens)
		if err != nil {
			log.WithField(FieldPath, c.Request.URL.Path).Debug("Rejected unauthenticated request")
			HandleError(c, NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth 有令牌时解析用户身份，没有令牌时直接放行
func OptionalAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens != nil && c.GetHeader("Authorization") != "" {
			claims, err := parseBearer(c, tokens)
			if err != nil {
				HandleError(c, NewUnauthorizedError("invalid token"))
				c.Abort()
				return
			}
			setClaims(c, claims)
		}
		c.Next()
	}
}

// UserID 返回当前请求的用户ID，未登录时为空
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func parseBearer(c *gin.Context, tokens *auth.TokenManager) (*auth.Claims, error) {
	if tokens == nil {
		return nil, auth.ErrEmptySecret
	}
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return nil, auth.ErrEmptyToken
	}
	return tokens.Parse(strings.TrimSpace(token))
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(userIDKey, claims.UserID)
	c.Set(usernameKey, claims.Username)
}
