package driver

import (
	"context"
	"errors"
)

// ErrNoMatch 选择器未匹配到任何元素
var ErrNoMatch = errors.New("no element matches selector")

// Handle 元素句柄
// 由具体驱动实现,引擎只持有并回传,不解析内部结构
type Handle interface {
	// Selector 返回命中该元素的选择器,用于日志
	Selector() string
}

// ClickOptions 点击选项
type ClickOptions struct {
	// Force 强制点击,跳过可见性和遮挡检测
	Force bool
}

// StateInjector 支持注入已保存登录态的驱动
// 真实浏览器后端在导航前把 cookies/storage 写入会话
type StateInjector interface {
	InjectState(ctx context.Context, state []byte) error
}

// Driver 浏览器驱动能力接口
// 任何浏览器自动化后端(playwright/chromedp 等)实现该接口即可接入,
// 引擎只消费这组窄能力,不依赖具体后端
type Driver interface {
	// Navigate 跳转到指定地址
	Navigate(ctx context.Context, url string) error

	// Query 查询元素,未命中返回 ErrNoMatch
	Query(ctx context.Context, selector string) (Handle, error)

	// Click 点击元素
	Click(ctx context.Context, h Handle, opts ClickOptions) error

	// Fill 直接写入输入框的值
	Fill(ctx context.Context, h Handle, text string) error

	// Focus 聚焦元素
	Focus(ctx context.Context, h Handle) error

	// SelectAll 全选元素内容
	SelectAll(ctx context.Context, h Handle) error

	// Paste 通过剪贴板粘贴文本到当前聚焦元素
	Paste(ctx context.Context, text string) error

	// Text 读取元素文本
	Text(ctx context.Context, h Handle) (string, error)

	// CurrentURL 返回当前页面地址
	CurrentURL(ctx context.Context) (string, error)

	// Close 释放驱动资源
	Close() error
}
