package apihttp

import (
	"time"

	"textlens/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const traceIDKey = "trace_id"

// traceID 为每个请求生成追踪号，贯穿日志与审计记录。
func traceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(traceIDKey, id)
		c.Header("X-Trace-ID", id)
		c.Next()
	}
}

func traceFrom(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// requestLogger 记录每次调用，便于追踪上传与模型切换。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s trace=%s dur=%s",
			method, path, c.Writer.Status(), client, traceFrom(c), time.Since(start))
	}
}
