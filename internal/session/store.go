package session

import (
	"context"
	"errors"
	"time"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/model"
	"gorm.io/gorm"
)

// Store 平台登录态存储
// 快照是不透明的字节串,存储层从不解析其内容;
// Load 实现了引擎的 SessionProvider 接口,未找到时返回 (nil, nil)
type Store interface {
	engine.SessionProvider
	Save(ctx context.Context, platform engine.PlatformID, state []byte) error
	Delete(ctx context.Context, platform engine.PlatformID) error
	List(ctx context.Context) ([]engine.PlatformID, error)
}

// gormStore 基于 gorm 的登录态存储实现
type gormStore struct {
	db *gorm.DB
}

// NewStore 创建登录态存储
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Load 读取平台登录态,未保存过时返回 (nil, nil)
func (s *gormStore) Load(ctx context.Context, platform engine.PlatformID) (*engine.Session, error) {
	var m model.SessionModel
	err := s.db.WithContext(ctx).Where("platform = ?", string(platform)).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &engine.Session{
		Platform:  platform,
		State:     m.State,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// Save 写入或覆盖平台登录态
func (s *gormStore) Save(ctx context.Context, platform engine.PlatformID, state []byte) error {
	m := &model.SessionModel{
		Platform:  string(platform),
		State:     state,
		UpdatedAt: time.Now(),
	}
	if err := m.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(m).Error
}

// Delete 删除平台登录态
func (s *gormStore) Delete(ctx context.Context, platform engine.PlatformID) error {
	return s.db.WithContext(ctx).Where("platform = ?", string(platform)).Delete(&model.SessionModel{}).Error
}

// List 返回所有已保存登录态的平台
func (s *gormStore) List(ctx context.Context) ([]engine.PlatformID, error) {
	var rows []model.SessionModel
	if err := s.db.WithContext(ctx).Order("platform").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.PlatformID, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.PlatformID(row.Platform))
	}
	return out, nil
}
