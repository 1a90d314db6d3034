package services

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WSConnManager - реестр живых WebSocket-соединений по uid.
// Один пользователь может держать несколько вкладок
type WSConnManager struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		conns: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (m *WSConnManager) Add(uid string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[uid] == nil {
		m.conns[uid] = make(map[*websocket.Conn]struct{})
	}
	m.conns[uid][conn] = struct{}{}
}

func (m *WSConnManager) Remove(uid string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns[uid], conn)
	if len(m.conns[uid]) == 0 {
		delete(m.conns, uid)
	}
}

// Send рассылает сообщение во все соединения пользователя,
// ошибки записи игнорируются - push best-effort
func (m *WSConnManager) Send(uid string, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for conn := range m.conns[uid] {
		_ = conn.WriteMessage(websocket.TextMessage, message)
	}
}

var GlobalWSConnManager = NewWSConnManager()
