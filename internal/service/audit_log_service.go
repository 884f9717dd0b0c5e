package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autopub/publish-gin/internal/model"
	"github.com/autopub/publish-gin/internal/repository"
	"github.com/google/uuid"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	// 创建审计日志,请求元信息由中间件写入 context
	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    stringFromContext(ctx, ContextKeyRequestID),
		IP:           stringFromContext(ctx, ContextKeyIP),
		UserAgent:    stringFromContext(ctx, ContextKeyUserAgent),
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// getUserIDFromContext 从 context 获取用户 ID
func getUserIDFromContext(ctx context.Context) string {
	if id := stringFromContext(ctx, ContextKeyUserID); id != "" {
		return id
	}
	return "anonymous"
}
