package api_test

import (
	"io"
	"os"
	"testing"

	"github.com/autopub/publish-gin/internal/api"
	"github.com/gin-gonic/gin"
)

// TestMain 测试入口,关闭请求日志噪声
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	api.SetLoggerOutput(io.Discard)
	os.Exit(m.Run())
}
