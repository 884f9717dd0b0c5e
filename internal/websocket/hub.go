package websocket

import (
	"sync"
)

// taskMessage 定向到某个任务订阅者的消息
type taskMessage struct {
	taskID  string
	payload []byte
}

// Hub 管理所有 WebSocket 连接
// 客户端按任务 ID 订阅,只收到自己关注任务的进度消息
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 按任务 ID 索引的订阅者
	subscribers map[string]map[*Client]bool

	// 定向广播到任务订阅者
	broadcast chan taskMessage

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁，保护 clients 和 subscribers
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		subscribers: make(map[string]map[*Client]bool),
		broadcast:   make(chan taskMessage, 64),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if client.TaskID != "" {
				if h.subscribers[client.TaskID] == nil {
					h.subscribers[client.TaskID] = make(map[*Client]bool)
				}
				h.subscribers[client.TaskID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.subscribers[msg.taskID] {
				select {
				case client.Send <- msg.payload:
				default:
					h.removeClient(client)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToTask 向订阅指定任务的客户端广播消息
func (h *Hub) BroadcastToTask(taskID string, message []byte) {
	h.broadcast <- taskMessage{taskID: taskID, payload: message}
}

// removeClient 移除客户端及其订阅,调用方持有写锁
func (h *Hub) removeClient(client *Client) {
	delete(h.clients, client)
	if client.TaskID != "" {
		if subs, ok := h.subscribers[client.TaskID]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscribers, client.TaskID)
			}
		}
	}
}

// SubscriberCount 获取某个任务的订阅者数量
func (h *Hub) SubscriberCount(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[taskID])
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
