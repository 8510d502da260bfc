package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultExpiryHours 令牌默认有效期（小时）
	DefaultExpiryHours = 24

	// DefaultIssuer 默认签发者
	DefaultIssuer = "doc-lesson-system"
)

var (
	// ErrEmptyToken 令牌为空
	ErrEmptyToken = errors.New("token is empty")

	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrEmptySecret 签名密钥未配置
	ErrEmptySecret = errors.New("jwt secret is not configured")
)

// Claims JWT载荷
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager 负责令牌的签发与校验
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption 令牌管理器配置选项
type TokenOption func(*TokenManager)

// WithExpiry 设置令牌有效期
func WithExpiry(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		if d > 0 {
			m.expiry = d
		}
	}
}

// WithIssuer 设置签发者
func WithIssuer(issuer string) TokenOption {
	return func(m *TokenManager) {
		if issuer != "" {
			m.issuer = issuer
		}
	}
}

// WithClock 替换时间来源，主要用于测试
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager 创建令牌管理器
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	m := &TokenManager{
		secret: []byte(secret),
		expiry: DefaultExpiryHours * time.Hour,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Expiry 返回令牌有效期
func (m *TokenManager) Expiry() time.Duration {
	return m.expiry
}

// Generate 为用户签发HS256令牌
func (m *TokenManager) Generate(userID, username string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.expiry)

	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse 校验令牌并返回载荷
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
