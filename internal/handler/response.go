// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"boxseek-go/internal/apperr"

	"github.com/gin-gonic/gin"
)

// ok 返回统一的成功响应结构。
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"data":    data,
		"message": "success",
	})
}

// fail 把业务错误映射为 HTTP 响应。错误码和消息来自错误分类，
// 内部错误不向外暴露底层细节。
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	message := "内部错误"
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		message = appErr.Error()
	}
	c.JSON(status, gin.H{
		"code":    status,
		"data":    nil,
		"message": message,
	})
}

// badRequest 返回参数错误响应。
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    http.StatusBadRequest,
		"data":    nil,
		"message": message,
	})
}

// workspaceID 从 Gin 上下文取出认证中间件写入的工作区标识。
func workspaceID(c *gin.Context) string {
	return c.MustGet("workspaceId").(string)
}
