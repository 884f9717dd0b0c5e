package model

import (
	"errors"
	"time"
)

// SessionModel 平台登录态数据模型
// State 是不透明的序列化快照,服务端从不解析其内容
type SessionModel struct {
	Platform  string    `gorm:"primaryKey;type:varchar(64)"`
	State     []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (SessionModel) TableName() string {
	return "platform_sessions"
}

// Validate 验证登录态模型
func (m *SessionModel) Validate() error {
	if m.Platform == "" {
		return errors.New("platform is required")
	}
	if len(m.State) == 0 {
		return errors.New("session state is required")
	}
	return nil
}
