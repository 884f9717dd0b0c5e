package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSessions 内存登录态提供方
type mapSessions struct {
	mu       sync.Mutex
	sessions map[engine.PlatformID]*engine.Session
}

func newMapSessions(platforms ...engine.PlatformID) *mapSessions {
	s := &mapSessions{sessions: make(map[engine.PlatformID]*engine.Session)}
	for _, p := range platforms {
		s.sessions[p] = &engine.Session{Platform: p, State: []byte(`{"cookies":[]}`), UpdatedAt: time.Now()}
	}
	return s
}

func (s *mapSessions) Load(ctx context.Context, platform engine.PlatformID) (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[platform], nil
}

// recordingNotifier 收集通知回调用于断言
type recordingNotifier struct {
	mu       sync.Mutex
	created  []string
	finished []string
	results  []engine.PublishResult
}

func (n *recordingNotifier) TaskCreated(task *engine.PublishTask) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, task.ID)
}

func (n *recordingNotifier) PlatformFinished(task *engine.PublishTask, result engine.PublishResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
}

func (n *recordingNotifier) TaskFinished(task *engine.PublishTask) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finished = append(n.finished, task.ID)
}

func (n *recordingNotifier) finishedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.finished)
}

func memoryDrivers(p engine.PlatformID) (driver.Driver, error) {
	return driver.NewMemory(), nil
}

func testOrchestrator(t *testing.T, registry *engine.Registry, sessions engine.SessionProvider, notifier engine.Notifier, cfg engine.Config) *engine.Orchestrator {
	t.Helper()
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = 5 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = engine.RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Millisecond}
	}
	return engine.NewOrchestrator(registry, memoryDrivers, sessions, notifier, cfg, nil)
}

func waitDone(t *testing.T, orch *engine.Orchestrator, id string) *engine.PublishTask {
	t.Helper()
	var task *engine.PublishTask
	require.Eventually(t, func() bool {
		got, ok := orch.GetTask(id)
		if !ok || !got.Done() {
			return false
		}
		task = got
		return true
	}, 5*time.Second, 10*time.Millisecond, "task %s did not finish", id)
	return task
}

// TestOrchestrator_AllPlatformsSucceed 测试全部平台成功
func TestOrchestrator_AllPlatformsSucceed(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://csdn.example/article/details/1"})
	registry.Register(&stubStrategy{platform: "juejin", url: "https://juejin.cn/post/1"})

	orch := testOrchestrator(t, registry, newMapSessions("csdn", "juejin"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn", "juejin"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	task := waitDone(t, orch, id)
	assert.Equal(t, engine.StatusCompleted, task.Status)
	assert.Equal(t, "https://csdn.example/article/details/1", task.Results["csdn"].PublishedURL)
	assert.Equal(t, "https://juejin.cn/post/1", task.Results["juejin"].PublishedURL)
	assert.NotNil(t, task.CompletedAt)
}

// TestOrchestrator_PartialFailure 测试单平台失败不影响其他平台
func TestOrchestrator_PartialFailure(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://csdn.example/article/details/1"})
	registry.Register(&stubStrategy{
		platform:   "juejin",
		prepareErr: engine.NewError(engine.ErrorKindSessionInvalid, "login popup detected"),
	})

	orch := testOrchestrator(t, registry, newMapSessions("csdn", "juejin"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn", "juejin"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	task := waitDone(t, orch, id)
	assert.Equal(t, engine.StatusPartialFailure, task.Status)
	assert.True(t, task.Results["csdn"].Success)
	assert.False(t, task.Results["juejin"].Success)
	assert.Equal(t, engine.ErrorKindSessionInvalid, task.Results["juejin"].ErrorKind)
}

// TestOrchestrator_PanicIsolatedFromSiblings 测试单平台策略 panic 不影响兄弟平台的正常结果
func TestOrchestrator_PanicIsolatedFromSiblings(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://csdn.example/article/details/1"})
	registry.Register(&stubStrategy{platform: "juejin", panicMsg: "nil pointer in selector table"})

	orch := testOrchestrator(t, registry, newMapSessions("csdn", "juejin"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn", "juejin"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	task := waitDone(t, orch, id)
	assert.Equal(t, engine.StatusPartialFailure, task.Status)
	assert.True(t, task.Results["csdn"].Success)
	assert.Equal(t, "https://csdn.example/article/details/1", task.Results["csdn"].PublishedURL)
	assert.Equal(t, engine.ErrorKindInternal, task.Results["juejin"].ErrorKind)
	assert.Contains(t, task.Results["juejin"].ErrorMessage, "nil pointer in selector table")
}

// TestOrchestrator_UpdateConfigAppliesToNewRuns 测试热更新的重试策略只作用于后续运行
func TestOrchestrator_UpdateConfigAppliesToNewRuns(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", failTimes: 10})

	orch := testOrchestrator(t, registry, newMapSessions("csdn"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)
	task := waitDone(t, orch, id)
	assert.Equal(t, 1, task.Results["csdn"].Attempts)

	orch.UpdateConfig(engine.Config{
		MaxConcurrent: 2,
		RunTimeout:    5 * time.Second,
		Retry:         engine.RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond},
	})

	id, err = orch.Submit([]engine.PlatformID{"csdn"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)
	task = waitDone(t, orch, id)
	assert.Equal(t, 2, task.Results["csdn"].Attempts)
}

// TestOrchestrator_UnsupportedPlatform 测试未注册平台得到 unsupported_platform 结果
func TestOrchestrator_UnsupportedPlatform(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://csdn.example/article/details/1"})

	orch := testOrchestrator(t, registry, newMapSessions("csdn", "weibo"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn", "weibo"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	task := waitDone(t, orch, id)
	assert.Equal(t, engine.StatusPartialFailure, task.Status)
	assert.Equal(t, engine.ErrorKindUnsupportedPlatform, task.Results["weibo"].ErrorKind)
}

// TestOrchestrator_MissingSession 测试无登录态的平台得到 session_invalid 结果
func TestOrchestrator_MissingSession(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://csdn.example/article/details/1"})
	registry.Register(&stubStrategy{platform: "juejin", url: "https://juejin.cn/post/1"})

	// 只给 csdn 准备登录态
	orch := testOrchestrator(t, registry, newMapSessions("csdn"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn", "juejin"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	task := waitDone(t, orch, id)
	assert.Equal(t, engine.ErrorKindSessionInvalid, task.Results["juejin"].ErrorKind)
	assert.True(t, task.Results["csdn"].Success)
}

// TestOrchestrator_ConcurrencyCap 测试并发上限生效
func TestOrchestrator_ConcurrencyCap(t *testing.T) {
	var running, peak int32
	observe := func() {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&running, -1)
	}

	registry := engine.NewRegistry()
	platforms := []engine.PlatformID{"csdn", "juejin", "zhihu"}
	for _, p := range platforms {
		registry.Register(&stubStrategy{platform: p, url: "https://example.com/post", onPrepare: observe})
	}

	orch := testOrchestrator(t, registry, newMapSessions(platforms...), nil, engine.Config{MaxConcurrent: 1})

	id, err := orch.Submit(platforms, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	waitDone(t, orch, id)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

// TestOrchestrator_CancelProducesResultsForAllPlatforms 测试取消后每个平台仍有且只有一个结果
func TestOrchestrator_CancelProducesResultsForAllPlatforms(t *testing.T) {
	registry := engine.NewRegistry()
	platforms := []engine.PlatformID{"csdn", "juejin", "zhihu"}
	for _, p := range platforms {
		registry.Register(&stubStrategy{platform: p, block: true})
	}

	notifier := &recordingNotifier{}
	orch := testOrchestrator(t, registry, newMapSessions(platforms...), notifier, engine.Config{MaxConcurrent: 1})

	id, err := orch.Submit(platforms, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	// 等第一个平台真正跑起来再取消
	time.Sleep(50 * time.Millisecond)
	require.True(t, orch.CancelTask(id))

	task := waitDone(t, orch, id)
	assert.Equal(t, engine.StatusFailed, task.Status)
	assert.Len(t, task.Results, len(platforms))
	for _, p := range platforms {
		assert.Equal(t, engine.ErrorKindCancelled, task.Results[p].ErrorKind, "platform %s", p)
	}

	// 每个平台恰好通知一次
	require.Eventually(t, func() bool { return notifier.finishedCount() == 1 }, time.Second, 10*time.Millisecond)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.results, len(platforms))
	assert.Equal(t, []string{id}, notifier.created)
}

// TestOrchestrator_DeduplicatesPlatforms 测试重复平台去重
func TestOrchestrator_DeduplicatesPlatforms(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://example.com/post"})

	orch := testOrchestrator(t, registry, newMapSessions("csdn"), nil, engine.Config{MaxConcurrent: 2})

	id, err := orch.Submit([]engine.PlatformID{"csdn", "csdn", "csdn"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	task := waitDone(t, orch, id)
	assert.Equal(t, []engine.PlatformID{"csdn"}, task.Platforms)
	assert.Equal(t, engine.StatusCompleted, task.Status)
}

// TestOrchestrator_SubmitValidation 测试提交参数校验
func TestOrchestrator_SubmitValidation(t *testing.T) {
	orch := testOrchestrator(t, engine.NewRegistry(), newMapSessions(), nil, engine.Config{})

	_, err := orch.Submit(nil, "content", "title", engine.PublishOptions{})
	assert.Error(t, err)

	_, err = orch.Submit([]engine.PlatformID{"csdn"}, "content", "", engine.PublishOptions{})
	assert.Error(t, err)
}

// TestOrchestrator_RemoveTask 测试只有终结任务能被移除
func TestOrchestrator_RemoveTask(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", url: "https://example.com/post"})

	orch := testOrchestrator(t, registry, newMapSessions("csdn"), nil, engine.Config{MaxConcurrent: 1})

	assert.False(t, orch.RemoveTask("no-such-task"))

	id, err := orch.Submit([]engine.PlatformID{"csdn"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	waitDone(t, orch, id)
	assert.True(t, orch.RemoveTask(id))

	_, ok := orch.GetTask(id)
	assert.False(t, ok)
}

// TestOrchestrator_ListActiveTasks 测试在途任务列表不含已终结任务
func TestOrchestrator_ListActiveTasks(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Register(&stubStrategy{platform: "csdn", block: true})

	orch := testOrchestrator(t, registry, newMapSessions("csdn"), nil, engine.Config{MaxConcurrent: 1})

	id, err := orch.Submit([]engine.PlatformID{"csdn"}, "content", "title", engine.PublishOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(orch.ListActiveTasks()) == 1
	}, time.Second, 10*time.Millisecond)

	require.True(t, orch.CancelTask(id))
	waitDone(t, orch, id)

	assert.Empty(t, orch.ListActiveTasks())
}
