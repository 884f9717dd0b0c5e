package platform

import (
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/sirupsen/logrus"
)

// RegisterAll 注册全部内置平台策略
// 新增平台时在这里加一行注册即可,不需要改任何分支逻辑
func RegisterAll(registry *engine.Registry, logger *logrus.Entry) {
	registry.Register(NewCSDN(logger))
	registry.Register(NewJuejin(logger))
}
