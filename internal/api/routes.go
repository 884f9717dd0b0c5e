package api

import (
	"net/http"

	"github.com/autopub/publish-gin/internal/config"
	"github.com/autopub/publish-gin/internal/websocket"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes 配置路由
func SetupRoutes(
	cfg *config.Config,
	db *gorm.DB,
	hub *websocket.Hub,
	publishController *PublishController,
	sessionController *SessionController,
) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(RateLimitMiddleware(cfg.RateLimit))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// 认证(secret 为空时关闭)
	var validator *TokenValidator
	var wsAuth websocket.AuthFunc
	if cfg.Auth.Secret != "" {
		validator = NewTokenValidator(&cfg.Auth)
		wsAuth = func(token string) error {
			_, err := validator.ValidateToken(token)
			return err
		}
	}

	// WebSocket 任务进度订阅
	if hub != nil {
		router.GET("/ws/tasks/:id", websocket.TaskStreamHandler(hub, wsAuth))
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(validator))
	{
		// 发布任务路由
		publish := v1.Group("/publish")
		{
			publish.POST("", publishController.Submit)
			publish.GET("", publishController.List)
			publish.GET("/:id", publishController.Get)
			publish.POST("/:id/cancel", publishController.Cancel)
		}

		// 登录态管理路由
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", sessionController.List)
			sessions.PUT("/:platform", sessionController.Save)
			sessions.GET("/:platform", sessionController.Get)
			sessions.DELETE("/:platform", sessionController.Delete)
		}

		// 平台列表
		v1.GET("/platforms", publishController.Platforms)
	}

	// 自定义 NoRoute 处理器,返回 JSON 格式的 404
	// 必须在所有业务路由注册之后设置,确保未匹配的路由返回 JSON 而不是 HTML
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
