package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/autopub/publish-gin/internal/service"
	"github.com/autopub/publish-gin/internal/utils"
	"github.com/gin-gonic/gin"
)

// PublishController 发布任务控制器
type PublishController struct {
	publishService service.PublishService
}

// NewPublishController 创建发布任务控制器
func NewPublishController(publishService service.PublishService) *PublishController {
	return &PublishController{
		publishService: publishService,
	}
}

// validateTaskID 验证任务 ID 并返回错误响应（如果无效）
func (c *PublishController) validateTaskID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateTaskID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid task ID", err.Error())
		return false
	}
	return true
}

// Submit 提交发布任务
// @Summary      提交批量发布任务
// @Description  将一篇文章并发发布到多个平台,立即返回任务 ID
// @Tags         发布管理
// @Accept       json
// @Produce      json
// @Param        request body service.SubmitRequest true "发布请求"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /publish [post]
// @Security     BearerAuth
func (c *PublishController) Submit(ctx *gin.Context) {
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	for _, p := range req.Platforms {
		if err := utils.ValidatePlatformID(p); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid platform ID", p+": "+err.Error())
			return
		}
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid title", err.Error())
		return
	}

	taskID, err := c.publishService.Submit(ctx.Request.Context(), &req)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to submit task", err.Error())
		return
	}

	Success(ctx, gin.H{"task_id": taskID})
}

// Get 获取任务详情
// @Summary      获取发布任务详情
// @Description  根据 ID 获取任务状态和各平台结果
// @Tags         发布管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /publish/{id} [get]
// @Security     BearerAuth
func (c *PublishController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	task, err := c.publishService.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			Error(ctx, http.StatusNotFound, "task not found", err.Error())
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to get task", err.Error())
		return
	}

	Success(ctx, task)
}

// List 列出任务
// @Summary      列出发布任务
// @Description  active=true 只列在途任务,否则列最近的归档任务
// @Tags         发布管理
// @Accept       json
// @Produce      json
// @Param        active query bool false "只列在途任务"
// @Param        limit  query int  false "返回条数上限" default(50)
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /publish [get]
// @Security     BearerAuth
func (c *PublishController) List(ctx *gin.Context) {
	if ctx.Query("active") == "true" {
		Success(ctx, c.publishService.ListActive())
		return
	}

	limit := 50
	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	tasks, err := c.publishService.ListRecent(ctx.Request.Context(), limit)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list tasks", err.Error())
		return
	}

	Success(ctx, tasks)
}

// Cancel 取消任务
// @Summary      取消发布任务
// @Description  取消在途任务,尚未开始的平台立即写入取消结果
// @Tags         发布管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /publish/{id}/cancel [post]
// @Security     BearerAuth
func (c *PublishController) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	if err := c.publishService.Cancel(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			Error(ctx, http.StatusNotFound, "task not found", err.Error())
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to cancel task", err.Error())
		return
	}

	Success(ctx, nil)
}

// Platforms 列出支持的平台
// @Summary      列出支持的平台
// @Description  返回所有已注册发布策略的平台标识
// @Tags         发布管理
// @Produce      json
// @Success      200  {object}  Response
// @Router       /platforms [get]
func (c *PublishController) Platforms(ctx *gin.Context) {
	Success(ctx, c.publishService.Platforms())
}
