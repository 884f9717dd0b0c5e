package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher 配置文件监听器
// 监听配置文件变化并重新解析,把新配置推给注册的回调;
// 解析失败时保留当前配置,本次变更被忽略
type Watcher struct {
	configPath string
	viper      *viper.Viper

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	stopMu  sync.RWMutex
	stopped bool
}

// NewWatcher 创建配置监听器
// 监听器的 viper 实例带与 Load 相同的默认值,
// 配置文件删掉某个键时回落到默认值而不是零值
func NewWatcher(cfg *Config, configPath string) *Watcher {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	return &Watcher{
		configPath: configPath,
		viper:      v,
		current:    cfg,
	}
}

// OnChange 注册配置变更回调
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start 启动监听
func (w *Watcher) Start() error {
	if err := w.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	w.viper.WatchConfig()
	w.viper.OnConfigChange(func(e fsnotify.Event) {
		w.stopMu.RLock()
		stopped := w.stopped
		w.stopMu.RUnlock()
		if stopped {
			return
		}

		var next Config
		if err := w.viper.Unmarshal(&next); err != nil {
			return
		}

		w.mu.Lock()
		w.current = &next
		callbacks := make([]func(*Config), len(w.callbacks))
		copy(callbacks, w.callbacks)
		w.mu.Unlock()

		// 回调在锁外执行,避免回调里再读配置时死锁
		for _, callback := range callbacks {
			callback(&next)
		}
	})

	return nil
}

// Stop 停止推送变更,已注册的文件监听随进程退出释放
func (w *Watcher) Stop() {
	w.stopMu.Lock()
	defer w.stopMu.Unlock()
	w.stopped = true
}

// Current 当前配置快照
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
