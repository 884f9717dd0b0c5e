package platform

import (
	"context"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/sirupsen/logrus"
)

// Timing 策略内各类等待的时间预算
type Timing struct {
	// LocatePerAttempt 单个候选选择器的时间预算
	LocatePerAttempt time.Duration

	// LocateTotal 一次定位的整体时间预算
	LocateTotal time.Duration

	// StableWait 页面稳定等待上限
	StableWait time.Duration

	// PollInterval 就绪探针轮询间隔
	PollInterval time.Duration
}

// DefaultTiming 默认时间预算
func DefaultTiming() Timing {
	return Timing{
		LocatePerAttempt: 2 * time.Second,
		LocateTotal:      8 * time.Second,
		StableWait:       10 * time.Second,
		PollInterval:     250 * time.Millisecond,
	}
}

// base 各平台策略的公共部分
type base struct {
	platform engine.PlatformID
	timing   Timing
	logger   *logrus.Entry
}

func newBase(platform engine.PlatformID, logger *logrus.Entry) base {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return base{
		platform: platform,
		timing:   DefaultTiming(),
		logger:   logger.WithField("platform", platform),
	}
}

// Platform 返回平台标识
func (b *base) Platform() engine.PlatformID {
	return b.platform
}

// locate 用平台时间预算定位语义目标
func (b *base) locate(ctx context.Context, page *engine.PageContext, target string, candidates []engine.ElementSelector) (driver.Handle, error) {
	return page.Locator.Locate(ctx, target, candidates, b.timing.LocatePerAttempt, b.timing.LocateTotal)
}

// applySoft 软失败执行一个可选子步骤
// 失败只记日志不向上传播,单个可选项出错不应中止整次提交
func (b *base) applySoft(name string, fn func() error) {
	if err := fn(); err != nil {
		b.logger.WithFields(logrus.Fields{
			"option": name,
			"error":  err.Error(),
		}).Warn("optional publish step failed, continuing")
	}
}

// checkSession 校验登录态快照是否存在
func (b *base) checkSession(session *engine.Session) error {
	if session == nil || len(session.State) == 0 {
		return engine.NewError(engine.ErrorKindSessionInvalid, "platform %s has no usable session state", b.platform)
	}
	return nil
}
