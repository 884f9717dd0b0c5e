package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DriverFactory 为一次平台运行创建专属驱动实例
// 驱动实例绝不跨并发运行共享,运行结束即释放
type DriverFactory func(platform PlatformID) (driver.Driver, error)

// SessionProvider 登录态提供方
// 返回 (nil, nil) 表示该平台没有已保存的登录态
type SessionProvider interface {
	Load(ctx context.Context, platform PlatformID) (*Session, error)
}

// Notifier 任务进度通知
// 实现方不得阻塞,耗时操作自行异步化
type Notifier interface {
	TaskCreated(task *PublishTask)
	PlatformFinished(task *PublishTask, result PublishResult)
	TaskFinished(task *PublishTask)
}

// MultiNotifier 将多个 Notifier 合并为一个
func MultiNotifier(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

type multiNotifier []Notifier

func (m multiNotifier) TaskCreated(task *PublishTask) {
	for _, n := range m {
		n.TaskCreated(task)
	}
}

func (m multiNotifier) PlatformFinished(task *PublishTask, result PublishResult) {
	for _, n := range m {
		n.PlatformFinished(task, result)
	}
}

func (m multiNotifier) TaskFinished(task *PublishTask) {
	for _, n := range m {
		n.TaskFinished(task)
	}
}

// Config 编排器配置
type Config struct {
	// MaxConcurrent 同时执行的平台运行数上限
	MaxConcurrent int

	// RunTimeout 单个平台运行的整体时限(导航+全部步骤)
	RunTimeout time.Duration

	// Retry 单平台重试策略
	Retry RetryPolicy

	// PlatformInterval 同一平台两次运行之间的最小间隔,0 表示不限
	PlatformInterval time.Duration
}

// DefaultConfig 默认编排器配置
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 3,
		RunTimeout:    3 * time.Minute,
		Retry:         DefaultRetryPolicy(),
	}
}

// taskEntry 任务表条目
// mu 保护 task 的全部可变字段,cancel 触发任务级取消
type taskEntry struct {
	mu     sync.Mutex
	task   *PublishTask
	cancel context.CancelFunc
}

// Orchestrator 批量发布编排器
// 为每个任务展开至多 MaxConcurrent 个并发平台运行,
// 结果按平台写入一次且仅一次,单平台失败不影响其他平台
type Orchestrator struct {
	registry *Registry
	drivers  DriverFactory
	sessions SessionProvider
	notifier Notifier
	runner   *Runner
	cfg      Config
	logger   *logrus.Entry

	mu       sync.RWMutex
	tasks    map[string]*taskEntry
	limiters map[PlatformID]*rate.Limiter
}

// NewOrchestrator 创建编排器
func NewOrchestrator(registry *Registry, drivers DriverFactory, sessions SessionProvider, notifier Notifier, cfg Config, logger *logrus.Entry) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultConfig().RunTimeout
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		registry: registry,
		drivers:  drivers,
		sessions: sessions,
		notifier: notifier,
		runner:   NewRunner(logger),
		cfg:      cfg,
		logger:   logger,
		tasks:    make(map[string]*taskEntry),
		limiters: make(map[PlatformID]*rate.Limiter),
	}
}

// Registry 返回策略注册表
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// UpdateConfig 热更新运行参数
// 只影响后续启动的平台运行,在途运行沿用旧参数
func (o *Orchestrator) UpdateConfig(cfg Config) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultConfig().RunTimeout
	}
	o.mu.Lock()
	o.cfg = cfg
	o.limiters = make(map[PlatformID]*rate.Limiter)
	o.mu.Unlock()
}

// config 当前配置快照
func (o *Orchestrator) config() Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg
}

// Submit 提交批量发布任务,立即返回任务 ID,不等待完成
func (o *Orchestrator) Submit(platforms []PlatformID, content, title string, opts PublishOptions) (string, error) {
	if len(platforms) == 0 {
		return "", fmt.Errorf("no platforms specified")
	}
	if title == "" {
		return "", fmt.Errorf("title is required")
	}

	// 去重,保持原始顺序
	seen := make(map[PlatformID]bool, len(platforms))
	uniq := make([]PlatformID, 0, len(platforms))
	for _, p := range platforms {
		if !seen[p] {
			seen[p] = true
			uniq = append(uniq, p)
		}
	}

	task := &PublishTask{
		ID:        uuid.New().String(),
		Platforms: uniq,
		Content:   content,
		Title:     title,
		Options:   opts,
		Status:    StatusPending,
		Results:   make(map[PlatformID]PublishResult, len(uniq)),
		CreatedAt: time.Now(),
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	entry := &taskEntry{task: task, cancel: cancel}

	o.mu.Lock()
	o.tasks[task.ID] = entry
	o.mu.Unlock()

	if o.notifier != nil {
		o.notifier.TaskCreated(task.Clone())
	}

	go o.run(taskCtx, entry)

	return task.ID, nil
}

// GetTask 查询任务快照
func (o *Orchestrator) GetTask(id string) (*PublishTask, bool) {
	o.mu.RLock()
	entry, ok := o.tasks[id]
	o.mu.RUnlock()
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.task.Clone(), true
}

// ListActiveTasks 返回所有未终结任务的快照,按创建时间排序
func (o *Orchestrator) ListActiveTasks() []*PublishTask {
	o.mu.RLock()
	entries := make([]*taskEntry, 0, len(o.tasks))
	for _, e := range o.tasks {
		entries = append(entries, e)
	}
	o.mu.RUnlock()

	out := make([]*PublishTask, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.task.CompletedAt == nil {
			out = append(out, e.task.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CancelTask 取消任务
// 在途运行观察到取消后仍会写入 cancelled 结果,
// 保证每个平台最终都有且只有一个结果
func (o *Orchestrator) CancelTask(id string) bool {
	o.mu.RLock()
	entry, ok := o.tasks[id]
	o.mu.RUnlock()
	if !ok {
		return false
	}
	entry.cancel()
	return true
}

// RemoveTask 从内存表移除已终结任务,归档由上层负责
func (o *Orchestrator) RemoveTask(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.tasks[id]
	if !ok {
		return false
	}
	entry.mu.Lock()
	done := entry.task.CompletedAt != nil
	entry.mu.Unlock()
	if !done {
		return false
	}
	delete(o.tasks, id)
	return true
}

// run 任务协调协程: 信号量限流展开各平台运行
func (o *Orchestrator) run(ctx context.Context, entry *taskEntry) {
	entry.mu.Lock()
	entry.task.Status = StatusRunning
	platforms := append([]PlatformID(nil), entry.task.Platforms...)
	entry.mu.Unlock()

	sem := make(chan struct{}, o.config().MaxConcurrent)
	var wg sync.WaitGroup

	for _, platform := range platforms {
		wg.Add(1)
		go func(platform PlatformID) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				o.writeResult(entry, PublishResult{
					Platform:     platform,
					ErrorKind:    ErrorKindCancelled,
					ErrorMessage: "task cancelled before platform run started",
					Attempts:     0,
				})
				return
			}

			o.writeResult(entry, o.runPlatform(ctx, entry, platform))
		}(platform)
	}

	wg.Wait()
	entry.cancel()

	entry.mu.Lock()
	finished := entry.task.Clone()
	entry.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"task_id": finished.ID,
		"status":  finished.Status,
	}).Info("publish task finished")

	if o.notifier != nil {
		o.notifier.TaskFinished(finished)
	}
}

// runPlatform 执行单个平台,任何失败都转换为结果而不是错误
func (o *Orchestrator) runPlatform(ctx context.Context, entry *taskEntry, platform PlatformID) PublishResult {
	entry.mu.Lock()
	content := entry.task.Content
	title := entry.task.Title
	opts := entry.task.Options
	taskID := entry.task.ID
	entry.mu.Unlock()

	logger := o.logger.WithFields(logrus.Fields{
		"task_id":  taskID,
		"platform": platform,
	})

	strategy, found := o.registry.Resolve(platform)
	if !found {
		return PublishResult{
			Platform:     platform,
			ErrorKind:    ErrorKindUnsupportedPlatform,
			ErrorMessage: fmt.Sprintf("no strategy registered for platform %q", platform),
			Attempts:     1,
		}
	}

	session, err := o.sessions.Load(ctx, platform)
	if err != nil {
		return PublishResult{
			Platform:     platform,
			ErrorKind:    ErrorKindInternal,
			ErrorMessage: fmt.Sprintf("load session: %v", err),
			Attempts:     1,
		}
	}
	if session == nil {
		return PublishResult{
			Platform:     platform,
			ErrorKind:    ErrorKindSessionInvalid,
			ErrorMessage: fmt.Sprintf("no saved session for platform %q", platform),
			Attempts:     1,
		}
	}

	// 同平台节流,避免多任务同时冲击一个站点
	if limiter := o.platformLimiter(platform); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return PublishResult{
				Platform:     platform,
				ErrorKind:    ErrorKindCancelled,
				ErrorMessage: "task cancelled while waiting for platform slot",
				Attempts:     0,
			}
		}
	}

	drv, err := o.drivers(platform)
	if err != nil {
		return PublishResult{
			Platform:     platform,
			ErrorKind:    ErrorKindInternal,
			ErrorMessage: fmt.Sprintf("create driver: %v", err),
			Attempts:     1,
		}
	}
	defer drv.Close()

	cfg := o.config()
	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	logger.Info("platform run started")
	return o.runner.Run(runCtx, platform, strategy, drv, session, content, title, opts, cfg.Retry)
}

// writeResult 写入平台结果并重算任务状态
// 同一平台只有第一次写入生效
func (o *Orchestrator) writeResult(entry *taskEntry, result PublishResult) {
	entry.mu.Lock()
	task := entry.task
	if _, exists := task.Results[result.Platform]; exists {
		entry.mu.Unlock()
		return
	}
	task.Results[result.Platform] = result
	task.Status = DeriveStatus(task.Platforms, task.Results, true)
	if task.Done() && task.CompletedAt == nil {
		now := time.Now()
		task.CompletedAt = &now
	}
	snapshot := task.Clone()
	entry.mu.Unlock()

	if o.notifier != nil {
		o.notifier.PlatformFinished(snapshot, result)
	}
}

// platformLimiter 懒加载平台限流器
func (o *Orchestrator) platformLimiter(platform PlatformID) *rate.Limiter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cfg.PlatformInterval <= 0 {
		return nil
	}
	limiter, ok := o.limiters[platform]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(o.cfg.PlatformInterval), 1)
		o.limiters[platform] = limiter
	}
	return limiter
}
