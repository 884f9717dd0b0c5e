package engine

import (
	"context"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/sirupsen/logrus"
)

// RetryPolicy 重试策略
// 只对瞬时类错误生效,退避间隔按次翻倍
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy 默认重试策略
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// Runner 单平台发布执行器
// 包装一次完整策略运行,带重试和 panic 隔离;
// 错误永远不会越过这一层,总是转换为 PublishResult
type Runner struct {
	logger *logrus.Entry
}

// NewRunner 创建执行器
func NewRunner(logger *logrus.Entry) *Runner {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{logger: logger}
}

// Run 执行一个平台的完整发布流程
// 瞬时错误按策略重试,session_invalid 等终态错误直接失败,
// 任何情况下都返回一个 PublishResult,从不抛出错误
func (r *Runner) Run(ctx context.Context, platform PlatformID, strategy Strategy, drv driver.Driver, session *Session, content, title string, opts PublishOptions, policy RetryPolicy) PublishResult {
	start := time.Now()
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	backoff := policy.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return r.failure(platform, WrapError(KindOf(err), err, "run aborted"), attempt-1, start)
		}

		url, err := r.runOnce(ctx, strategy, drv, session, content, title, opts)
		if err == nil {
			r.logger.WithFields(logrus.Fields{
				"platform": platform,
				"attempt":  attempt,
				"url":      url,
			}).Info("publish succeeded")
			return PublishResult{
				Platform:     platform,
				Success:      true,
				PublishedURL: url,
				Attempts:     attempt,
				Elapsed:      time.Since(start),
			}
		}

		kind := KindOf(err)
		r.logger.WithFields(logrus.Fields{
			"platform": platform,
			"attempt":  attempt,
			"kind":     kind,
			"error":    err.Error(),
		}).Warn("publish attempt failed")

		lastErr = err
		if !kind.Retryable() || attempt == policy.MaxAttempts {
			return r.failure(platform, err, attempt, start)
		}

		select {
		case <-ctx.Done():
			return r.failure(platform, WrapError(KindOf(ctx.Err()), ctx.Err(), "run aborted during backoff"), attempt, start)
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return r.failure(platform, lastErr, policy.MaxAttempts, start)
}

// runOnce 运行一次策略的四个步骤
// panic 在这里被捕获并转换为 internal 错误,保证隔离边界
func (r *Runner) runOnce(ctx context.Context, strategy Strategy, drv driver.Driver, session *Session, content, title string, opts PublishOptions) (url string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("panic", rec).Error("strategy panicked")
			err = NewError(ErrorKindInternal, "strategy panic: %v", rec)
		}
	}()

	// 驱动支持时先注入登录态,策略打开页面即处于已登录状态
	if inj, ok := drv.(driver.StateInjector); ok && session != nil {
		if err := inj.InjectState(ctx, session.State); err != nil {
			return "", WrapError(ErrorKindSessionInvalid, err, "inject session state")
		}
	}

	page, err := strategy.Prepare(ctx, drv, session)
	if err != nil {
		return "", err
	}
	if err := strategy.FillTitle(ctx, page, title); err != nil {
		return "", err
	}
	if err := strategy.FillContent(ctx, page, content); err != nil {
		return "", err
	}
	return strategy.ApplyOptionsAndSubmit(ctx, page, opts)
}

// failure 构造失败结果
func (r *Runner) failure(platform PlatformID, err error, attempts int, start time.Time) PublishResult {
	kind := KindOf(err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return PublishResult{
		Platform:     platform,
		Success:      false,
		ErrorKind:    kind,
		ErrorMessage: msg,
		Attempts:     attempts,
		Elapsed:      time.Since(start),
	}
}
