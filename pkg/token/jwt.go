// Package token 提供 WebSocket 聊天会话所用的短期 JWT。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTManager 负责签发与校验聊天会话令牌。
type JWTManager struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string, expireMinutes int) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		tokenDuration: time.Duration(expireMinutes) * time.Minute,
	}
}

// GenerateChatToken 签发一个一次性的聊天会话令牌。
func (m *JWTManager) GenerateChatToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   "chat-session",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyToken 校验令牌的签名与有效期。
func (m *JWTManager) VerifyToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("非预期的签名算法: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
	if err != nil {
		return fmt.Errorf("令牌无效: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("令牌无效")
	}
	return nil
}
