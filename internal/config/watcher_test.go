package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/autopub/publish-gin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWatcher_ReloadOnFileChange 测试配置文件修改后回调收到新配置
func TestWatcher_ReloadOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_concurrent: 2\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Engine.MaxConcurrent)

	watcher := config.NewWatcher(cfg, path)
	var mu sync.Mutex
	var latest *config.Config
	watcher.OnChange(func(next *config.Config) {
		mu.Lock()
		latest = next
		mu.Unlock()
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_concurrent: 5\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.Engine.MaxConcurrent == 5
	}, 3*time.Second, 50*time.Millisecond)

	assert.Equal(t, 5, watcher.Current().Engine.MaxConcurrent)

	// 文件里没写的键回落到默认值
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "3m0s", latest.Engine.RunTimeout.String())
}

// TestWatcher_CurrentBeforeStart 测试启动前返回初始配置
func TestWatcher_CurrentBeforeStart(t *testing.T) {
	cfg := config.Default()
	watcher := config.NewWatcher(cfg, "no-such-config.yaml")

	assert.Same(t, cfg, watcher.Current())
}

// TestWatcher_StartMissingFile 测试配置文件不存在时启动报错
func TestWatcher_StartMissingFile(t *testing.T) {
	watcher := config.NewWatcher(config.Default(), filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, watcher.Start())
}
