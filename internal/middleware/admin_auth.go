package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth 校验 X-Admin-Token 请求头，只放行与配置的 bcrypt 哈希匹配的请求。
// 用于保护清空知识库这类不可逆的管理操作。
func AdminAuth(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "管理接口未配置访问密钥"})
			return
		}
		provided := c.GetHeader("X-Admin-Token")
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "缺少 X-Admin-Token 请求头"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(provided)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "管理密钥不正确"})
			return
		}
		c.Next()
	}
}
