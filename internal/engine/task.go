package engine

import (
	"time"
)

// PlatformID 目标平台标识,全局作为 map key 使用
type PlatformID string

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 已创建,尚未有平台开始执行
	StatusPending TaskStatus = "pending"

	// StatusRunning 至少一个平台在执行或排队中
	StatusRunning TaskStatus = "running"

	// StatusCompleted 全部平台发布成功
	StatusCompleted TaskStatus = "completed"

	// StatusPartialFailure 部分成功,部分失败
	StatusPartialFailure TaskStatus = "partial_failure"

	// StatusFailed 全部平台发布失败
	StatusFailed TaskStatus = "failed"
)

// Visibility 文章可见性
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
)

// PublishOptions 发布选项
// 传入每个策略的不可变值,策略忽略自己不支持的字段
type PublishOptions struct {
	Tags       []string               `json:"tags,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
	Categories []string               `json:"categories,omitempty"`
	Visibility Visibility             `json:"visibility,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// PublishResult 单平台发布结果
// 每个任务每个平台恰好产生一次,创建后不可变
type PublishResult struct {
	Platform     PlatformID    `json:"platform"`
	Success      bool          `json:"success"`
	PublishedURL string        `json:"published_url,omitempty"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Attempts     int           `json:"attempts"`
	Elapsed      time.Duration `json:"elapsed"`
}

// PublishTask 批量发布任务聚合根
type PublishTask struct {
	ID          string                       `json:"id"`
	Platforms   []PlatformID                 `json:"platforms"`
	Content     string                       `json:"content"`
	Title       string                       `json:"title"`
	Options     PublishOptions               `json:"options"`
	Status      TaskStatus                   `json:"status"`
	Results     map[PlatformID]PublishResult `json:"results"`
	CreatedAt   time.Time                    `json:"created_at"`
	CompletedAt *time.Time                   `json:"completed_at,omitempty"`
}

// Done 判断任务是否已终结(每个平台都有结果)
func (t *PublishTask) Done() bool {
	return len(t.Results) == len(t.Platforms)
}

// Clone 返回任务的深拷贝,供并发读取
func (t *PublishTask) Clone() *PublishTask {
	c := *t
	c.Platforms = append([]PlatformID(nil), t.Platforms...)
	c.Results = make(map[PlatformID]PublishResult, len(t.Results))
	for k, v := range t.Results {
		c.Results[k] = v
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// DeriveStatus 由 (platforms, results) 纯函数推导任务状态
// started 表示是否已有平台开始执行,用于区分 pending 和 running
func DeriveStatus(platforms []PlatformID, results map[PlatformID]PublishResult, started bool) TaskStatus {
	if len(results) < len(platforms) {
		if started || len(results) > 0 {
			return StatusRunning
		}
		return StatusPending
	}

	succeeded := 0
	for _, p := range platforms {
		if r, ok := results[p]; ok && r.Success {
			succeeded++
		}
	}
	switch succeeded {
	case len(platforms):
		return StatusCompleted
	case 0:
		return StatusFailed
	default:
		return StatusPartialFailure
	}
}
