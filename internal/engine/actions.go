package engine

import (
	"context"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/sirupsen/logrus"
)

// EditorMode 编辑器类型,决定内容填充走哪条路径
type EditorMode string

const (
	// EditorModeMarkdown markdown 编辑器,接受直接赋值
	EditorModeMarkdown EditorMode = "markdown"

	// EditorModeRichText 富文本编辑器,只能走剪贴板粘贴
	EditorModeRichText EditorMode = "rich_text"
)

// Actions 弹性交互原语
// 点击和填充都带降级路径,等待用就绪探针轮询代替固定 sleep
type Actions struct {
	drv    driver.Driver
	logger *logrus.Entry
}

// NewActions 创建交互原语
func NewActions(drv driver.Driver, logger *logrus.Entry) *Actions {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Actions{drv: drv, logger: logger}
}

// SafeClick 点击元素
// 普通点击失败(被遮挡/被拦截)时降级为强制点击,再失败才报错
func (a *Actions) SafeClick(ctx context.Context, h driver.Handle) error {
	err := a.drv.Click(ctx, h, driver.ClickOptions{})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return WrapError(KindOf(ctx.Err()), ctx.Err(), "click "+h.Selector())
	}

	a.logger.WithFields(logrus.Fields{
		"selector": h.Selector(),
		"error":    err.Error(),
	}).Warn("normal click failed, retrying with force")

	if err := a.drv.Click(ctx, h, driver.ClickOptions{Force: true}); err != nil {
		return WrapError(ErrorKindInteractionFailed, err, "click "+h.Selector())
	}
	return nil
}

// SafeFill 填充文本
// markdown 模式直接赋值,失败时降级剪贴板路径;
// 富文本模式根据编辑器探测结果直接走剪贴板,不依赖异常判断
func (a *Actions) SafeFill(ctx context.Context, h driver.Handle, text string, mode EditorMode) error {
	if mode != EditorModeRichText {
		if err := a.drv.Fill(ctx, h, text); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return WrapError(KindOf(ctx.Err()), ctx.Err(), "fill "+h.Selector())
		} else {
			a.logger.WithFields(logrus.Fields{
				"selector": h.Selector(),
				"error":    err.Error(),
			}).Warn("direct fill rejected, falling back to clipboard paste")
		}
	}
	return a.pasteFill(ctx, h, text)
}

// pasteFill 剪贴板填充路径: 聚焦 -> 全选 -> 粘贴覆盖
func (a *Actions) pasteFill(ctx context.Context, h driver.Handle, text string) error {
	if err := a.drv.Focus(ctx, h); err != nil {
		return WrapError(ErrorKindInteractionFailed, err, "focus "+h.Selector())
	}
	if err := a.drv.SelectAll(ctx, h); err != nil {
		return WrapError(ErrorKindInteractionFailed, err, "select all "+h.Selector())
	}
	if err := a.drv.Paste(ctx, text); err != nil {
		return WrapError(ErrorKindInteractionFailed, err, "paste into "+h.Selector())
	}
	return nil
}

// WaitStable 轮询就绪探针直到返回 true 或超出 maxWait
// 超时返回 false 而不是错误,是否致命由调用方决定
func (a *Actions) WaitStable(ctx context.Context, probe func(ctx context.Context) bool, maxWait, interval time.Duration) bool {
	if interval <= 0 {
		interval = locatePollInterval
	}
	deadline := time.Now().Add(maxWait)
	for {
		if probe(ctx) {
			return true
		}
		if ctx.Err() != nil || !time.Now().Add(interval).Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
