package model

import (
	"errors"
	"time"
)

// PublishTaskModel 发布任务归档数据模型
// 任务终结后由服务层写入,用于历史查询;在途任务只存在于引擎内存表
type PublishTaskModel struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)"`
	Title       string     `gorm:"type:varchar(255);not null"`
	Content     string     `gorm:"type:text;not null"`
	Platforms   []byte     `gorm:"type:jsonb;not null"` // 平台列表(JSON 数组)
	Options     []byte     `gorm:"type:jsonb"`          // 发布选项(JSON)
	Status      string     `gorm:"type:varchar(32);not null;index"`
	CreatedBy   string     `gorm:"type:varchar(64);index"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	CompletedAt *time.Time `gorm:"index"`
}

// TableName 指定表名
func (PublishTaskModel) TableName() string {
	return "publish_tasks"
}

// Validate 验证任务归档模型
func (m *PublishTaskModel) Validate() error {
	if m.ID == "" {
		return errors.New("task ID is required")
	}
	if m.Title == "" {
		return errors.New("task title is required")
	}
	if len(m.Platforms) == 0 {
		return errors.New("task platforms are required")
	}
	if m.Status == "" {
		return errors.New("task status is required")
	}
	return nil
}
