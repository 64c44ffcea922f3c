package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes 适用于普通请求；uploadMaxBytes 适用于以 /import 结尾的上传路由
func BodyLimit(maxBytes, uploadMaxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if uploadMaxBytes > 0 && strings.HasSuffix(c.FullPath(), "/import") {
			limit = uploadMaxBytes
		}

		if c.Request.ContentLength > limit {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
