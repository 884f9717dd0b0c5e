package service

import (
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/metrics"
	"github.com/autopub/publish-gin/internal/repository"
	"github.com/sirupsen/logrus"
)

// TaskArchiver 任务归档器
// 实现引擎的 Notifier 接口: 记录平台结果指标,
// 任务终结后写入归档并把它移出引擎内存表
type TaskArchiver struct {
	taskRepo repository.TaskRepository
	logger   *logrus.Entry

	// orch 在编排器创建后通过 Bind 注入(两者互相引用)
	orch *engine.Orchestrator
}

// NewTaskArchiver 创建任务归档器
func NewTaskArchiver(taskRepo repository.TaskRepository, logger *logrus.Entry) *TaskArchiver {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TaskArchiver{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// Bind 绑定编排器,必须在编排器创建后、第一个任务提交前调用
func (a *TaskArchiver) Bind(orch *engine.Orchestrator) {
	a.orch = orch
}

// TaskCreated 任务创建回调
func (a *TaskArchiver) TaskCreated(task *engine.PublishTask) {
	a.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"platforms": task.Platforms,
	}).Info("publish task created")
}

// PlatformFinished 单平台结果回调,记录发布指标
func (a *TaskArchiver) PlatformFinished(task *engine.PublishTask, result engine.PublishResult) {
	metrics.RecordPublishResult(string(result.Platform), result.Success, string(result.ErrorKind), result.Elapsed.Seconds())
}

// TaskFinished 任务终结回调,归档后从内存表淘汰
func (a *TaskArchiver) TaskFinished(task *engine.PublishTask) {
	if err := a.taskRepo.Archive(task); err != nil {
		// 归档失败时保留内存副本,下次查询仍可命中
		a.logger.WithFields(logrus.Fields{
			"task_id": task.ID,
			"error":   err.Error(),
		}).Error("failed to archive finished task")
		return
	}
	if a.orch != nil {
		a.orch.RemoveTask(task.ID)
	}
}
