package api

import (
	"context"

	"github.com/autopub/publish-gin/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware 请求 ID 中间件
// 复用客户端传入的 X-Request-ID,否则生成新的,
// 同时把请求元信息写入 request context 供审计日志读取
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, service.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, service.ContextKeyIP, c.ClientIP())
		ctx = context.WithValue(ctx, service.ContextKeyUserAgent, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
