package api

import (
	"net/http"

	"github.com/autopub/publish-gin/internal/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware API 限流中间件
// 全局令牌桶,保护下游的浏览器实例池不被请求洪峰拖垮;
// 配置的 RPS 不为正数时限流关闭
func RateLimitMiddleware(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests",
				Detail:  "request rate limit exceeded, retry later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
