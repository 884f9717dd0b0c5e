package engine_test

import (
	"testing"
	"time"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/stretchr/testify/assert"
)

// TestDeriveStatus_Pending 测试无结果且未开始时为 pending
func TestDeriveStatus_Pending(t *testing.T) {
	platforms := []engine.PlatformID{"csdn", "juejin"}
	results := map[engine.PlatformID]engine.PublishResult{}

	status := engine.DeriveStatus(platforms, results, false)
	assert.Equal(t, engine.StatusPending, status)
}

// TestDeriveStatus_Running 测试有部分结果时为 running
func TestDeriveStatus_Running(t *testing.T) {
	platforms := []engine.PlatformID{"csdn", "juejin"}
	results := map[engine.PlatformID]engine.PublishResult{
		"csdn": {Platform: "csdn", Success: true},
	}

	assert.Equal(t, engine.StatusRunning, engine.DeriveStatus(platforms, results, true))
	// 已有结果时即使 started=false 也视为 running
	assert.Equal(t, engine.StatusRunning, engine.DeriveStatus(platforms, results, false))
}

// TestDeriveStatus_Completed 测试全部成功时为 completed
func TestDeriveStatus_Completed(t *testing.T) {
	platforms := []engine.PlatformID{"csdn", "juejin"}
	results := map[engine.PlatformID]engine.PublishResult{
		"csdn":   {Platform: "csdn", Success: true},
		"juejin": {Platform: "juejin", Success: true},
	}

	assert.Equal(t, engine.StatusCompleted, engine.DeriveStatus(platforms, results, true))
}

// TestDeriveStatus_Failed 测试全部失败时为 failed
func TestDeriveStatus_Failed(t *testing.T) {
	platforms := []engine.PlatformID{"csdn", "juejin"}
	results := map[engine.PlatformID]engine.PublishResult{
		"csdn":   {Platform: "csdn", ErrorKind: engine.ErrorKindTimeout},
		"juejin": {Platform: "juejin", ErrorKind: engine.ErrorKindSessionInvalid},
	}

	assert.Equal(t, engine.StatusFailed, engine.DeriveStatus(platforms, results, true))
}

// TestDeriveStatus_PartialFailure 测试部分成功时为 partial_failure
func TestDeriveStatus_PartialFailure(t *testing.T) {
	platforms := []engine.PlatformID{"csdn", "juejin", "zhihu"}
	results := map[engine.PlatformID]engine.PublishResult{
		"csdn":   {Platform: "csdn", Success: true},
		"juejin": {Platform: "juejin", ErrorKind: engine.ErrorKindTimeout},
		"zhihu":  {Platform: "zhihu", Success: true},
	}

	assert.Equal(t, engine.StatusPartialFailure, engine.DeriveStatus(platforms, results, true))
}

// TestPublishTask_Done 测试终结判定
func TestPublishTask_Done(t *testing.T) {
	task := &engine.PublishTask{
		Platforms: []engine.PlatformID{"csdn", "juejin"},
		Results:   map[engine.PlatformID]engine.PublishResult{},
	}
	assert.False(t, task.Done())

	task.Results["csdn"] = engine.PublishResult{Platform: "csdn", Success: true}
	assert.False(t, task.Done())

	task.Results["juejin"] = engine.PublishResult{Platform: "juejin", Success: false}
	assert.True(t, task.Done())
}

// TestPublishTask_Clone 测试深拷贝与原对象互不影响
func TestPublishTask_Clone(t *testing.T) {
	now := time.Now()
	task := &engine.PublishTask{
		ID:        "task-1",
		Platforms: []engine.PlatformID{"csdn"},
		Title:     "hello",
		Status:    engine.StatusRunning,
		Results: map[engine.PlatformID]engine.PublishResult{
			"csdn": {Platform: "csdn", Success: true},
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}

	clone := task.Clone()
	clone.Results["juejin"] = engine.PublishResult{Platform: "juejin"}
	clone.Platforms = append(clone.Platforms, "juejin")
	*clone.CompletedAt = now.Add(time.Hour)

	assert.Len(t, task.Results, 1)
	assert.Len(t, task.Platforms, 1)
	assert.Equal(t, now, *task.CompletedAt)
}
