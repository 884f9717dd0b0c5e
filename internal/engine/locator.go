package engine

import (
	"context"
	"strings"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/sirupsen/logrus"
)

// ElementSelector 元素选择器候选项
// 同一个语义目标(如"标题输入框")维护一条有序降级链,
// 顺序即优先级,最稳定/最具体的写在最前
type ElementSelector struct {
	Query       string `json:"query"`
	Description string `json:"description"`
}

// 轮询间隔,候选项未命中时等待这么久再查下一次
const locatePollInterval = 200 * time.Millisecond

// Locator 元素定位器
// 按顺序尝试候选选择器,在时间预算内轮询,命中即返回
type Locator struct {
	drv    driver.Driver
	logger *logrus.Entry
}

// NewLocator 创建定位器
func NewLocator(drv driver.Driver, logger *logrus.Entry) *Locator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Locator{drv: drv, logger: logger}
}

// Locate 定位语义目标
// 每个候选项单次尝试受 perAttempt 约束,整体受 total 约束;
// 一轮未命中且预算未耗尽时从头再试一轮,异步渲染的元素
// 可能在后续轮次出现,这正是降级链设计的目的
func (l *Locator) Locate(ctx context.Context, target string, candidates []ElementSelector, perAttempt, total time.Duration) (driver.Handle, error) {
	if len(candidates) == 0 {
		return nil, NewError(ErrorKindElementNotFound, "no selector candidates for %s", target)
	}

	deadline := time.Now().Add(total)
	attempted := make([]string, 0, len(candidates))

	for round := 0; ; round++ {
		for _, cand := range candidates {
			if round == 0 {
				attempted = append(attempted, cand.Query)
			}

			h, ok := l.tryCandidate(ctx, cand, perAttempt, deadline)
			if ctx.Err() != nil {
				return nil, WrapError(KindOf(ctx.Err()), ctx.Err(), "locate "+target)
			}
			if ok {
				l.logger.WithFields(logrus.Fields{
					"target":   target,
					"selector": cand.Query,
					"round":    round,
				}).Debug("element located")
				return h, nil
			}

			l.logger.WithFields(logrus.Fields{
				"target":   target,
				"selector": cand.Query,
			}).Debug("selector candidate missed")

			if time.Now().After(deadline) {
				return nil, NewError(ErrorKindElementNotFound,
					"element %q not found, tried selectors: %s",
					target, strings.Join(attempted, ", "))
			}
		}

		// 一轮全部未命中后歇一个轮询间隔再重试,避免空转
		select {
		case <-ctx.Done():
			return nil, WrapError(KindOf(ctx.Err()), ctx.Err(), "locate "+target)
		case <-time.After(locatePollInterval):
		}
	}
}

// tryCandidate 在单项时间预算内轮询一个候选选择器
func (l *Locator) tryCandidate(ctx context.Context, cand ElementSelector, perAttempt time.Duration, deadline time.Time) (driver.Handle, bool) {
	attemptDeadline := time.Now().Add(perAttempt)
	if attemptDeadline.After(deadline) {
		attemptDeadline = deadline
	}

	for {
		h, err := l.drv.Query(ctx, cand.Query)
		if err == nil {
			return h, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
		if !time.Now().Add(locatePollInterval).Before(attemptDeadline) {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(locatePollInterval):
		}
	}
}
