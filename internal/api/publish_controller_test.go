package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autopub/publish-gin/internal/api"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/autopub/publish-gin/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublishService 可编程的发布服务测试替身
type fakePublishService struct {
	submitID  string
	submitErr error
	lastReq   *service.SubmitRequest

	task   *engine.PublishTask
	getErr error

	active []*engine.PublishTask
	recent []*engine.PublishTask

	cancelErr   error
	cancelledID string

	platforms []engine.PlatformID
}

func (f *fakePublishService) Submit(ctx context.Context, req *service.SubmitRequest) (string, error) {
	f.lastReq = req
	return f.submitID, f.submitErr
}

func (f *fakePublishService) Get(ctx context.Context, id string) (*engine.PublishTask, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.task, nil
}

func (f *fakePublishService) ListActive() []*engine.PublishTask { return f.active }

func (f *fakePublishService) ListRecent(ctx context.Context, limit int) ([]*engine.PublishTask, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakePublishService) Cancel(ctx context.Context, id string) error {
	f.cancelledID = id
	return f.cancelErr
}

func (f *fakePublishService) Platforms() []engine.PlatformID { return f.platforms }

// setupPublishRouter 挂载发布路由的测试路由器
func setupPublishRouter(svc service.PublishService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := api.NewPublishController(svc)
	r := gin.New()
	r.POST("/publish", controller.Submit)
	r.GET("/publish", controller.List)
	r.GET("/publish/:id", controller.Get)
	r.POST("/publish/:id/cancel", controller.Cancel)
	r.GET("/platforms", controller.Platforms)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestPublishController_Submit 测试提交任务返回任务 ID
func TestPublishController_Submit(t *testing.T) {
	svc := &fakePublishService{submitID: "task-1"}
	r := setupPublishRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/publish", gin.H{
		"platforms": []string{"csdn", "juejin"},
		"title":     "一篇文章",
		"content":   "正文",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "task-1", data["task_id"])

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, []string{"csdn", "juejin"}, svc.lastReq.Platforms)
}

// TestPublishController_SubmitMissingFields 测试缺字段时 400
func TestPublishController_SubmitMissingFields(t *testing.T) {
	r := setupPublishRouter(&fakePublishService{})

	w := doJSON(t, r, http.MethodPost, "/publish", gin.H{"title": "只有标题"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPublishController_SubmitInvalidPlatform 测试非法平台标识被拒绝
func TestPublishController_SubmitInvalidPlatform(t *testing.T) {
	svc := &fakePublishService{submitID: "task-1"}
	r := setupPublishRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/publish", gin.H{
		"platforms": []string{"CSDN!"},
		"title":     "标题",
		"content":   "正文",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastReq)
}

// TestPublishController_Get 测试获取任务详情
func TestPublishController_Get(t *testing.T) {
	task := &engine.PublishTask{ID: "task-1", Title: "标题", Status: engine.StatusCompleted}
	r := setupPublishRouter(&fakePublishService{task: task})

	w := doJSON(t, r, http.MethodGet, "/publish/task-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "task-1", data["id"])
	assert.Equal(t, "completed", data["status"])
}

// TestPublishController_GetNotFound 测试任务不存在时 404
func TestPublishController_GetNotFound(t *testing.T) {
	r := setupPublishRouter(&fakePublishService{getErr: service.ErrTaskNotFound})

	w := doJSON(t, r, http.MethodGet, "/publish/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPublishController_GetInvalidID 测试非法任务 ID 时 400
func TestPublishController_GetInvalidID(t *testing.T) {
	r := setupPublishRouter(&fakePublishService{})

	w := doJSON(t, r, http.MethodGet, "/publish/bad!id", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPublishController_ListActive 测试 active=true 走在途任务列表
func TestPublishController_ListActive(t *testing.T) {
	svc := &fakePublishService{
		active: []*engine.PublishTask{{ID: "task-1", Status: engine.StatusRunning}},
		recent: []*engine.PublishTask{{ID: "task-2", Status: engine.StatusCompleted}},
	}
	r := setupPublishRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/publish?active=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "task-1", items[0].(map[string]interface{})["id"])
}

// TestPublishController_ListRecentWithLimit 测试 limit 参数
func TestPublishController_ListRecentWithLimit(t *testing.T) {
	svc := &fakePublishService{
		recent: []*engine.PublishTask{{ID: "task-1"}, {ID: "task-2"}, {ID: "task-3"}},
	}
	r := setupPublishRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/publish?limit=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.([]interface{}), 2)
}

// TestPublishController_Cancel 测试取消任务
func TestPublishController_Cancel(t *testing.T) {
	svc := &fakePublishService{}
	r := setupPublishRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/publish/task-1/cancel", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "task-1", svc.cancelledID)
}

// TestPublishController_CancelNotFound 测试取消不存在的任务 404
func TestPublishController_CancelNotFound(t *testing.T) {
	r := setupPublishRouter(&fakePublishService{cancelErr: service.ErrTaskNotFound})

	w := doJSON(t, r, http.MethodPost, "/publish/missing/cancel", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPublishController_Platforms 测试平台列表
func TestPublishController_Platforms(t *testing.T) {
	r := setupPublishRouter(&fakePublishService{platforms: []engine.PlatformID{"csdn", "juejin"}})

	w := doJSON(t, r, http.MethodGet, "/platforms", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []interface{}{"csdn", "juejin"}, resp.Data)
}
