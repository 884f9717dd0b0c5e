package container

import (
	"fmt"
	"time"

	"github.com/autopub/publish-gin/internal/api"
	"github.com/autopub/publish-gin/internal/config"
	"github.com/autopub/publish-gin/internal/database"
	"github.com/autopub/publish-gin/internal/driver"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/platform"
	"github.com/autopub/publish-gin/internal/repository"
	"github.com/autopub/publish-gin/internal/service"
	"github.com/autopub/publish-gin/internal/session"
	"github.com/autopub/publish-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、引擎、服务等
type Container struct {
	db           *gorm.DB
	logger       *logrus.Logger
	registry     *engine.Registry
	orchestrator *engine.Orchestrator
	hub          *websocket.Hub
	publishSvc   service.PublishService
	sessionSvc   service.SessionService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化日志
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	entry := logrus.NewEntry(logger)

	// 2. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. 初始化仓储和登录态存储
	taskRepo := repository.NewTaskRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	sessionStore := session.NewStore(db)

	// 4. 注册全部平台策略
	registry := engine.NewRegistry()
	platform.RegisterAll(registry, entry)

	// 5. 初始化任务进度推送和归档
	hub := websocket.NewHub()
	go hub.Run()
	archiver := service.NewTaskArchiver(taskRepo, entry)
	notifier := engine.MultiNotifier(
		websocket.NewTaskNotifier(hub, entry),
		archiver,
	)

	// 6. 初始化编排器
	headless := config.IsProduction(cfg)
	drivers := func(p engine.PlatformID) (driver.Driver, error) {
		return driver.NewPlaywright(driver.PlaywrightOptions{Headless: headless})
	}
	orch := engine.NewOrchestrator(registry, drivers, sessionStore, notifier, engine.Config{
		MaxConcurrent: cfg.Engine.MaxConcurrent,
		RunTimeout:    cfg.Engine.RunTimeout,
		Retry: engine.RetryPolicy{
			MaxAttempts:    cfg.Engine.RetryAttempts,
			InitialBackoff: cfg.Engine.RetryBackoff,
		},
		PlatformInterval: cfg.Engine.PlatformInterval,
	}, entry)
	archiver.Bind(orch)

	// 7. 初始化服务
	auditLogSvc := service.NewAuditLogService(auditRepo)
	publishSvc := service.NewPublishService(orch, taskRepo, auditLogSvc)
	sessionSvc := service.NewSessionService(sessionStore, auditLogSvc)

	return &Container{
		db:           db,
		logger:       logger,
		registry:     registry,
		orchestrator: orch,
		hub:          hub,
		publishSvc:   publishSvc,
		sessionSvc:   sessionSvc,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Orchestrator 获取发布编排器
func (c *Container) Orchestrator() *engine.Orchestrator {
	return c.orchestrator
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// PublishService 获取发布服务
func (c *Container) PublishService() service.PublishService {
	return c.publishSvc
}

// SessionService 获取登录态服务
func (c *Container) SessionService() service.SessionService {
	return c.sessionSvc
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
