// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"boxseek-go/pkg/log"
	"boxseek-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Gate 决定一个主体能否在工作区内执行某个操作。
// 默认实现放行所有持有效令牌的请求；细粒度的授权策略由部署方注入。
type Gate interface {
	Check(workspaceID, subject, operation string) error
}

// AllowAllGate 是默认的放行网关：令牌有效即可操作其工作区。
type AllowAllGate struct{}

func (AllowAllGate) Check(workspaceID, subject, operation string) error {
	return nil
}

// WorkspaceAuth 创建一个 Gin 中间件，用于 JWT 认证和工作区授权。
// 身份和工作区成员关系由外部签发方保证，这里只验证 token 有效性，
// 并把 token 里的工作区标识写入 Gin 上下文，作为所有数据访问的边界。
func WorkspaceAuth(jwtManager *token.JWTManager, gate Gate) gin.HandlerFunc {
	if gate == nil {
		gate = AllowAllGate{}
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			log.Warnf("[WorkspaceAuth] token 验证失败: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		operation := c.Request.Method + " " + c.FullPath()
		if err := gate.Check(claims.WorkspaceID, claims.Subject, operation); err != nil {
			log.Warnf("[WorkspaceAuth] 授权被拒绝: workspaceId=%s, subject=%s, op=%s, err=%v",
				claims.WorkspaceID, claims.Subject, operation, err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "无权执行该操作"})
			return
		}

		c.Set("claims", claims)
		c.Set("workspaceId", claims.WorkspaceID)
		c.Next()
	}
}
