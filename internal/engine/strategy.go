package engine

import (
	"context"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/sirupsen/logrus"
)

// Session 平台登录态
// State 是不透明的序列化快照,引擎只透传给驱动,从不解析
type Session struct {
	Platform  PlatformID
	State     []byte
	UpdatedAt time.Time
}

// PageContext 单次发布的页面上下文
// 每个平台运行独占一份,随策略四步显式传递,不存全局
type PageContext struct {
	Driver  driver.Driver
	Locator *Locator
	Actions *Actions

	// Editor Prepare 阶段探测出的编辑器类型,决定后续填充模式
	Editor EditorMode
}

// NewPageContext 创建页面上下文
func NewPageContext(drv driver.Driver, editor EditorMode, logger *logrus.Entry) *PageContext {
	return &PageContext{
		Driver:  drv,
		Locator: NewLocator(drv, logger),
		Actions: NewActions(drv, logger),
		Editor:  editor,
	}
}

// Strategy 平台发布策略
// 四个步骤按序执行: 步骤 1-3 任何硬失败中止整次发布,
// 步骤 4 内部的选项应用是软失败,只有提交点击是硬失败
type Strategy interface {
	// Platform 返回策略对应的平台标识
	Platform() PlatformID

	// Prepare 打开编辑器页面,等待稳定,探测编辑器类型
	Prepare(ctx context.Context, drv driver.Driver, session *Session) (*PageContext, error)

	// FillTitle 定位标题输入框并填充标题
	FillTitle(ctx context.Context, page *PageContext, title string) error

	// FillContent 定位正文区域并按探测出的编辑器模式填充内容
	FillContent(ctx context.Context, page *PageContext, content string) error

	// ApplyOptionsAndSubmit 尽力应用发布选项,点击提交,提取文章地址
	// 提取不到地址时仍按成功处理,返回空字符串
	ApplyOptionsAndSubmit(ctx context.Context, page *PageContext, opts PublishOptions) (string, error)
}
