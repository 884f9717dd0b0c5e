package websocket

import (
	"net/http"

	"github.com/autopub/publish-gin/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该检查 Origin
		return true
	},
}

// AuthFunc 校验 query 参数中的 token,返回 nil 表示通过
// 传 nil 表示认证关闭(开发环境)
type AuthFunc func(token string) error

// TaskStreamHandler 任务进度 WebSocket 处理器
// 客户端连接 /ws/tasks/:id 订阅单个任务的进度消息
func TaskStreamHandler(hub *Hub, authFn AuthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 校验任务 ID
		taskID := c.Param("id")
		if err := utils.ValidateTaskID(taskID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
			return
		}

		// 2. 浏览器的 WebSocket API 不能带自定义头,token 走 query 参数
		if authFn != nil {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
				return
			}
			if err := authFn(token); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}

		// 3. 升级连接
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
			return
		}

		// 4. 创建并注册客户端
		client := NewClient(
			uuid.New().String(),
			taskID,
			hub,
			conn,
		)
		hub.Register <- client

		// 5. 启动 readPump 和 writePump
		go client.ReadPump()
		go client.WritePump()
	}
}
