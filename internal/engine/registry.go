package engine

import (
	"sort"
	"sync"
)

// Registry 策略注册表
// 进程启动时注册全部已知平台策略,之后只读
type Registry struct {
	mu         sync.RWMutex
	strategies map[PlatformID]Strategy
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[PlatformID]Strategy),
	}
}

// Register 注册平台策略,重复注册时后者覆盖前者
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Platform()] = s
}

// Resolve 查找平台策略
// 未注册不是本层的错误,调用方将其转换为 unsupported_platform
func (r *Registry) Resolve(platform PlatformID) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[platform]
	return s, ok
}

// Platforms 返回全部已注册平台,按字典序
func (r *Registry) Platforms() []PlatformID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PlatformID, 0, len(r.strategies))
	for p := range r.strategies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
