package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/model"
	"gorm.io/gorm"
)

// TaskRepository 发布任务归档仓储接口
type TaskRepository interface {
	Archive(task *engine.PublishTask) error
	FindByID(id string) (*engine.PublishTask, error)
	FindRecent(limit int) ([]*engine.PublishTask, error)
	FindByStatus(status engine.TaskStatus, limit int) ([]*engine.PublishTask, error)
}

// taskRepository 发布任务归档仓储实现
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务归档仓储
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Archive 归档一个已终结任务及其全部平台结果(事务)
func (r *taskRepository) Archive(task *engine.PublishTask) error {
	platforms, err := json.Marshal(task.Platforms)
	if err != nil {
		return fmt.Errorf("failed to marshal platforms: %w", err)
	}
	options, err := json.Marshal(task.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	taskModel := &model.PublishTaskModel{
		ID:          task.ID,
		Title:       task.Title,
		Content:     task.Content,
		Platforms:   platforms,
		Options:     options,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
	}
	if err := taskModel.Validate(); err != nil {
		return fmt.Errorf("invalid task archive: %w", err)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(taskModel).Error; err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		for _, p := range task.Platforms {
			result, ok := task.Results[p]
			if !ok {
				continue
			}
			resultModel := &model.PublishResultModel{
				TaskID:       task.ID,
				Platform:     string(result.Platform),
				Success:      result.Success,
				PublishedURL: result.PublishedURL,
				ErrorKind:    string(result.ErrorKind),
				ErrorMessage: result.ErrorMessage,
				Attempts:     result.Attempts,
				ElapsedMs:    result.Elapsed.Milliseconds(),
				CreatedAt:    time.Now(),
			}
			if err := tx.Create(resultModel).Error; err != nil {
				return fmt.Errorf("failed to save result for %s: %w", p, err)
			}
		}
		return nil
	})
}

// FindByID 根据 ID 查找归档任务
func (r *taskRepository) FindByID(id string) (*engine.PublishTask, error) {
	var taskModel model.PublishTaskModel
	if err := r.db.Where("id = ?", id).First(&taskModel).Error; err != nil {
		return nil, err
	}

	var resultModels []model.PublishResultModel
	if err := r.db.Where("task_id = ?", id).Find(&resultModels).Error; err != nil {
		return nil, err
	}

	return restoreTask(&taskModel, resultModels)
}

// FindRecent 按创建时间倒序查找最近的归档任务
func (r *taskRepository) FindRecent(limit int) ([]*engine.PublishTask, error) {
	return r.findTasks(r.db.Model(&model.PublishTaskModel{}), limit)
}

// FindByStatus 按状态查找归档任务
func (r *taskRepository) FindByStatus(status engine.TaskStatus, limit int) ([]*engine.PublishTask, error) {
	return r.findTasks(r.db.Model(&model.PublishTaskModel{}).Where("status = ?", string(status)), limit)
}

// findTasks 查询并还原任务列表
func (r *taskRepository) findTasks(query *gorm.DB, limit int) ([]*engine.PublishTask, error) {
	if limit <= 0 {
		limit = 50
	}
	var taskModels []model.PublishTaskModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]*engine.PublishTask, 0, len(taskModels))
	for i := range taskModels {
		var resultModels []model.PublishResultModel
		if err := r.db.Where("task_id = ?", taskModels[i].ID).Find(&resultModels).Error; err != nil {
			return nil, err
		}
		task, err := restoreTask(&taskModels[i], resultModels)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// restoreTask 从归档记录还原引擎任务对象
func restoreTask(taskModel *model.PublishTaskModel, resultModels []model.PublishResultModel) (*engine.PublishTask, error) {
	var platforms []engine.PlatformID
	if err := json.Unmarshal(taskModel.Platforms, &platforms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal platforms: %w", err)
	}
	var options engine.PublishOptions
	if len(taskModel.Options) > 0 {
		if err := json.Unmarshal(taskModel.Options, &options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
	}

	results := make(map[engine.PlatformID]engine.PublishResult, len(resultModels))
	for _, rm := range resultModels {
		results[engine.PlatformID(rm.Platform)] = engine.PublishResult{
			Platform:     engine.PlatformID(rm.Platform),
			Success:      rm.Success,
			PublishedURL: rm.PublishedURL,
			ErrorKind:    engine.ErrorKind(rm.ErrorKind),
			ErrorMessage: rm.ErrorMessage,
			Attempts:     rm.Attempts,
			Elapsed:      time.Duration(rm.ElapsedMs) * time.Millisecond,
		}
	}

	return &engine.PublishTask{
		ID:          taskModel.ID,
		Platforms:   platforms,
		Content:     taskModel.Content,
		Title:       taskModel.Title,
		Options:     options,
		Status:      engine.TaskStatus(taskModel.Status),
		Results:     results,
		CreatedAt:   taskModel.CreatedAt,
		CompletedAt: taskModel.CompletedAt,
	}, nil
}
