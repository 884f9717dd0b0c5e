package model

import (
	"errors"
	"time"
)

// PublishResultModel 单平台发布结果数据模型
// 每条对应一个 (任务, 平台),随任务归档一起写入
type PublishResultModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	TaskID       string    `gorm:"type:varchar(64);not null;index"`
	Platform     string    `gorm:"type:varchar(64);not null;index"`
	Success      bool      `gorm:"not null"`
	PublishedURL string    `gorm:"type:text"`
	ErrorKind    string    `gorm:"type:varchar(32)"`
	ErrorMessage string    `gorm:"type:text"`
	Attempts     int       `gorm:"not null"`
	ElapsedMs    int64     `gorm:"not null"` // 耗时(毫秒)
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (PublishResultModel) TableName() string {
	return "publish_results"
}

// Validate 验证结果模型
func (m *PublishResultModel) Validate() error {
	if m.TaskID == "" {
		return errors.New("task ID is required")
	}
	if m.Platform == "" {
		return errors.New("platform is required")
	}
	if !m.Success && m.ErrorKind == "" {
		return errors.New("failed result requires an error kind")
	}
	return nil
}
