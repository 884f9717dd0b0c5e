package websocket

import (
	"encoding/json"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/sirupsen/logrus"
)

// 事件类型
const (
	EventTaskCreated      = "task_created"
	EventPlatformFinished = "platform_finished"
	EventTaskFinished     = "task_finished"
)

// TaskEvent 推送给订阅者的任务进度事件
type TaskEvent struct {
	Type   string                `json:"type"`
	TaskID string                `json:"task_id"`
	Status engine.TaskStatus     `json:"status"`
	Result *engine.PublishResult `json:"result,omitempty"`
	Task   *engine.PublishTask   `json:"task,omitempty"`
}

// TaskNotifier 把引擎的任务进度回调转成 WebSocket 推送
type TaskNotifier struct {
	hub    *Hub
	logger *logrus.Entry
}

// NewTaskNotifier 创建任务进度推送器
func NewTaskNotifier(hub *Hub, logger *logrus.Entry) *TaskNotifier {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TaskNotifier{hub: hub, logger: logger}
}

// TaskCreated 任务创建事件
func (n *TaskNotifier) TaskCreated(task *engine.PublishTask) {
	n.push(TaskEvent{
		Type:   EventTaskCreated,
		TaskID: task.ID,
		Status: task.Status,
	})
}

// PlatformFinished 单平台结果事件
func (n *TaskNotifier) PlatformFinished(task *engine.PublishTask, result engine.PublishResult) {
	n.push(TaskEvent{
		Type:   EventPlatformFinished,
		TaskID: task.ID,
		Status: task.Status,
		Result: &result,
	})
}

// TaskFinished 任务终结事件,附带任务全量快照
func (n *TaskNotifier) TaskFinished(task *engine.PublishTask) {
	n.push(TaskEvent{
		Type:   EventTaskFinished,
		TaskID: task.ID,
		Status: task.Status,
		Task:   task,
	})
}

// push 序列化并广播事件
func (n *TaskNotifier) push(event TaskEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.WithField("error", err.Error()).Warn("failed to marshal task event")
		return
	}
	n.hub.BroadcastToTask(event.TaskID, payload)
}
