package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/metrics"
	"github.com/autopub/publish-gin/internal/model"
	"github.com/autopub/publish-gin/internal/repository"
	"gorm.io/gorm"
)

// ErrTaskNotFound 任务在内存表和归档里都不存在
var ErrTaskNotFound = errors.New("task not found")

// PublishService 发布任务服务接口
type PublishService interface {
	Submit(ctx context.Context, req *SubmitRequest) (string, error)
	Get(ctx context.Context, id string) (*engine.PublishTask, error)
	ListActive() []*engine.PublishTask
	ListRecent(ctx context.Context, limit int) ([]*engine.PublishTask, error)
	Cancel(ctx context.Context, id string) error
	Platforms() []engine.PlatformID
}

// SubmitRequest 提交发布任务请求
// @Description 批量发布的请求参数
type SubmitRequest struct {
	Platforms []string              `json:"platforms" binding:"required"` // 目标平台列表
	Title     string                `json:"title" binding:"required"`     // 文章标题
	Content   string                `json:"content" binding:"required"`   // 文章内容
	Options   engine.PublishOptions `json:"options"`                      // 发布选项
}

// publishService 发布任务服务实现
type publishService struct {
	orch        *engine.Orchestrator
	taskRepo    repository.TaskRepository
	auditLogSvc AuditLogService
}

// NewPublishService 创建发布任务服务
func NewPublishService(orch *engine.Orchestrator, taskRepo repository.TaskRepository, auditLogSvc AuditLogService) PublishService {
	return &publishService{
		orch:        orch,
		taskRepo:    taskRepo,
		auditLogSvc: auditLogSvc,
	}
}

// Submit 提交批量发布任务
func (s *publishService) Submit(ctx context.Context, req *SubmitRequest) (string, error) {
	platforms := make([]engine.PlatformID, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platforms = append(platforms, engine.PlatformID(p))
	}

	taskID, err := s.orch.Submit(platforms, req.Content, req.Title, req.Options)
	if err != nil {
		return "", fmt.Errorf("failed to submit task: %w", err)
	}

	// 记录业务指标
	metrics.RecordTaskCreated()

	// 记录审计日志
	if s.auditLogSvc != nil {
		details := map[string]interface{}{"task_id": taskID, "platforms": req.Platforms, "title": req.Title}
		_ = s.auditLogSvc.RecordAction(ctx, getUserIDFromContext(ctx), model.AuditActionSubmitTask, model.AuditResourceTask, taskID, details)
	}

	return taskID, nil
}

// Get 查询任务,优先读内存表,已淘汰的任务回落到归档
func (s *publishService) Get(ctx context.Context, id string) (*engine.PublishTask, error) {
	if task, ok := s.orch.GetTask(id); ok {
		return task, nil
	}
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load archived task: %w", err)
	}
	return task, nil
}

// ListActive 返回所有在途任务,顺带刷新状态分布指标
func (s *publishService) ListActive() []*engine.PublishTask {
	tasks := s.orch.ListActiveTasks()

	counts := map[engine.TaskStatus]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	for _, status := range []engine.TaskStatus{engine.StatusPending, engine.StatusRunning} {
		metrics.UpdateTasksByStatus(string(status), float64(counts[status]))
	}

	return tasks
}

// ListRecent 返回最近的归档任务
func (s *publishService) ListRecent(ctx context.Context, limit int) ([]*engine.PublishTask, error) {
	return s.taskRepo.FindRecent(limit)
}

// Cancel 取消任务
func (s *publishService) Cancel(ctx context.Context, id string) error {
	if !s.orch.CancelTask(id) {
		return ErrTaskNotFound
	}

	if s.auditLogSvc != nil {
		details := map[string]interface{}{"task_id": id}
		_ = s.auditLogSvc.RecordAction(ctx, getUserIDFromContext(ctx), model.AuditActionCancelTask, model.AuditResourceTask, id, details)
	}

	return nil
}

// Platforms 返回全部已注册平台
func (s *publishService) Platforms() []engine.PlatformID {
	return s.orch.Registry().Platforms()
}
