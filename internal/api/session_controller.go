package api

import (
	"encoding/base64"
	"net/http"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/service"
	"github.com/autopub/publish-gin/internal/utils"
	"github.com/gin-gonic/gin"
)

// SessionController 平台登录态控制器
type SessionController struct {
	sessionService service.SessionService
}

// NewSessionController 创建登录态控制器
func NewSessionController(sessionService service.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// saveSessionRequest 保存登录态请求
// State 是浏览器导出的登录态(cookies/storage),base64 编码
type saveSessionRequest struct {
	State string `json:"state" binding:"required"` // base64 编码的登录态
}

// validatePlatform 验证平台标识并返回错误响应（如果无效）
func (c *SessionController) validatePlatform(ctx *gin.Context, platform string) bool {
	if err := utils.ValidatePlatformID(platform); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid platform ID", err.Error())
		return false
	}
	return true
}

// Save 保存平台登录态
// @Summary      保存平台登录态
// @Description  保存某个平台的浏览器登录态,发布时注入浏览器会话
// @Tags         登录态管理
// @Accept       json
// @Produce      json
// @Param        platform path string true "平台标识"
// @Param        request body saveSessionRequest true "登录态"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions/{platform} [put]
// @Security     BearerAuth
func (c *SessionController) Save(ctx *gin.Context) {
	platform := ctx.Param("platform")
	if !c.validatePlatform(ctx, platform) {
		return
	}

	var req saveSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	state, err := base64.StdEncoding.DecodeString(req.State)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "invalid session state", "state must be base64 encoded")
		return
	}

	if err := c.sessionService.Save(ctx.Request.Context(), engine.PlatformID(platform), state); err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to save session", err.Error())
		return
	}

	Success(ctx, nil)
}

// Get 查询平台登录态
// @Summary      查询平台登录态
// @Description  返回是否已保存登录态及更新时间,不回传登录态本身
// @Tags         登录态管理
// @Produce      json
// @Param        platform path string true "平台标识"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{platform} [get]
// @Security     BearerAuth
func (c *SessionController) Get(ctx *gin.Context) {
	platform := ctx.Param("platform")
	if !c.validatePlatform(ctx, platform) {
		return
	}

	session, err := c.sessionService.Get(ctx.Request.Context(), engine.PlatformID(platform))
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get session", err.Error())
		return
	}
	if session == nil {
		Error(ctx, http.StatusNotFound, "session not found", "no saved session for platform "+platform)
		return
	}

	// 登录态内容敏感,只返回元信息
	Success(ctx, gin.H{
		"platform":   session.Platform,
		"updated_at": session.UpdatedAt,
	})
}

// Delete 删除平台登录态
// @Summary      删除平台登录态
// @Tags         登录态管理
// @Produce      json
// @Param        platform path string true "平台标识"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions/{platform} [delete]
// @Security     BearerAuth
func (c *SessionController) Delete(ctx *gin.Context) {
	platform := ctx.Param("platform")
	if !c.validatePlatform(ctx, platform) {
		return
	}

	if err := c.sessionService.Delete(ctx.Request.Context(), engine.PlatformID(platform)); err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to delete session", err.Error())
		return
	}

	Success(ctx, nil)
}

// List 列出已保存登录态的平台
// @Summary      列出已保存登录态的平台
// @Tags         登录态管理
// @Produce      json
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [get]
// @Security     BearerAuth
func (c *SessionController) List(ctx *gin.Context) {
	platforms, err := c.sessionService.List(ctx.Request.Context())
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list sessions", err.Error())
		return
	}

	Success(ctx, platforms)
}
