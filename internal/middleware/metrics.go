package middleware

import (
	"strconv"
	"time"

	"boxseek-go/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 是一个 Gin 中间件，记录请求数和耗时的 Prometheus 指标。
// path 取路由模板而不是原始 URL，避免标识符参数撑爆标签基数。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HttpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}
