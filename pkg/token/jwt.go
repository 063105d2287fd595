// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
// 用户身份和工作区成员关系由外部身份服务管理，本服务只验证令牌
// 并信任其中携带的工作区信息。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey []byte // secretKey 用于签名和验证 token 的密钥
}

// WorkspaceClaims 定义了访问令牌中携带的工作区上下文。
// 它嵌入了 jwt.RegisteredClaims 以包含标准的 JWT 声明（如过期时间）。
type WorkspaceClaims struct {
	WorkspaceID string `json:"workspaceId"`
	Subject     string `json:"subject"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secret),
	}
}

// GenerateToken 为指定的工作区和主体签发一个访问令牌。
// 正常流程中令牌由外部身份服务签发，这个方法主要用于测试和本地联调。
func (m *JWTManager) GenerateToken(workspaceID, subject string, ttl time.Duration) (string, error) {
	claims := WorkspaceClaims{
		WorkspaceID: workspaceID,
		Subject:     subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 验证给定的 token 字符串。
// 如果 token 有效，它会返回 WorkspaceClaims 对象。
// 如果 token 无效（例如，签名不匹配或已过期），则返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*WorkspaceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WorkspaceClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*WorkspaceClaims); ok && token.Valid {
		if claims.WorkspaceID == "" {
			return nil, errors.New("token 中缺少工作区信息")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
