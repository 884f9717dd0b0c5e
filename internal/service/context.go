package service

import "context"

// contextKey 请求元信息在 context 中的键类型
// 独立类型避免与其他包的裸字符串键冲突
type contextKey string

const (
	// ContextKeyUserID 认证中间件写入的用户 ID
	ContextKeyUserID contextKey = "user_id"

	// ContextKeyRequestID 请求 ID
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyIP 客户端 IP
	ContextKeyIP contextKey = "ip"

	// ContextKeyUserAgent 客户端 User-Agent
	ContextKeyUserAgent contextKey = "user_agent"
)

// stringFromContext 读取 context 中的字符串值,缺失时返回空串
func stringFromContext(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
