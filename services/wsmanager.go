package services

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// WSClient - одно WebSocket-соединение подписчика.
// gorilla/websocket допускает только одного писателя, поэтому все записи идут через mu.
type WSClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Write отправляет текстовый кадр, сериализуя конкурентные записи
func (c *WSClient) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSConnManager - реестр подписчиков уведомлений по имени пользователя
type WSConnManager struct {
	mu          sync.RWMutex
	subscribers map[string][]*WSClient
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{subscribers: make(map[string][]*WSClient)}
}

// Register подписывает соединение на уведомления для username
func (m *WSConnManager) Register(username string, conn *websocket.Conn) *WSClient {
	client := &WSClient{conn: conn}
	m.mu.Lock()
	m.subscribers[username] = append(m.subscribers[username], client)
	m.mu.Unlock()
	return client
}

func (m *WSConnManager) Unregister(username string, client *WSClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.subscribers[username]
	kept := list[:0]
	for _, c := range list {
		if c != client {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(m.subscribers, username)
		return
	}
	m.subscribers[username] = kept
}

func (m *WSConnManager) Connected(username string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[username])
}

// Send возвращает количество соединений, которым сообщение было доставлено.
// Запись идёт вне блокировки реестра: медленный клиент не держит Register/Unregister.
func (m *WSConnManager) Send(username string, message []byte) int {
	m.mu.RLock()
	targets := append([]*WSClient(nil), m.subscribers[username]...)
	m.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.Write(message); err == nil {
			delivered++
		}
	}
	return delivered
}
