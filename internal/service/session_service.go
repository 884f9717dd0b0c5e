package service

import (
	"context"
	"fmt"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/model"
	"github.com/autopub/publish-gin/internal/session"
)

// SessionService 平台登录态服务接口
type SessionService interface {
	Save(ctx context.Context, platform engine.PlatformID, state []byte) error
	Get(ctx context.Context, platform engine.PlatformID) (*engine.Session, error)
	Delete(ctx context.Context, platform engine.PlatformID) error
	List(ctx context.Context) ([]engine.PlatformID, error)
}

// sessionService 平台登录态服务实现
type sessionService struct {
	store       session.Store
	auditLogSvc AuditLogService
}

// NewSessionService 创建登录态服务
func NewSessionService(store session.Store, auditLogSvc AuditLogService) SessionService {
	return &sessionService{
		store:       store,
		auditLogSvc: auditLogSvc,
	}
}

// Save 保存平台登录态
func (s *sessionService) Save(ctx context.Context, platform engine.PlatformID, state []byte) error {
	if len(state) == 0 {
		return fmt.Errorf("session state is empty")
	}
	if err := s.store.Save(ctx, platform, state); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if s.auditLogSvc != nil {
		details := map[string]interface{}{"platform": platform, "state_bytes": len(state)}
		_ = s.auditLogSvc.RecordAction(ctx, getUserIDFromContext(ctx), model.AuditActionSaveSession, model.AuditResourceSession, string(platform), details)
	}

	return nil
}

// Get 读取平台登录态,未保存时返回 (nil, nil)
func (s *sessionService) Get(ctx context.Context, platform engine.PlatformID) (*engine.Session, error) {
	return s.store.Load(ctx, platform)
}

// Delete 删除平台登录态
func (s *sessionService) Delete(ctx context.Context, platform engine.PlatformID) error {
	if err := s.store.Delete(ctx, platform); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if s.auditLogSvc != nil {
		details := map[string]interface{}{"platform": platform}
		_ = s.auditLogSvc.RecordAction(ctx, getUserIDFromContext(ctx), model.AuditActionDeleteSession, model.AuditResourceSession, string(platform), details)
	}

	return nil
}

// List 返回所有已保存登录态的平台
func (s *sessionService) List(ctx context.Context) ([]engine.PlatformID, error) {
	return s.store.List(ctx)
}
