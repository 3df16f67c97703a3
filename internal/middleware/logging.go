// Package middleware 包含 Gin 的中间件。
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"rag-chat-go/pkg/log"
)

// RequestLogger 记录每个 HTTP 请求的方法、路径、状态码与耗时。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Infow("HTTP 请求",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}
