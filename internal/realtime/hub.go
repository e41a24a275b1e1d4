// Package realtime реализует реестр живых соединений: по одному
// websocket-каналу на пользователя плюс членство в комнатах.
//
// Реестр — единственное разделяемое изменяемое состояние процесса,
// доступ к картам закрыт одним мьютексом. Доставка fire-and-forget:
// без очередей, без повторов, сообщение отсутствующему адресату
// молча отбрасывается.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// Envelope структурный конверт исходящего сообщения.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub реестр соединений. Создаётся при старте процесса, живёт до
// остановки; соединения не переживают перезапуск.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn
	rooms map[string]map[string]struct{} // userID -> множество комнат
}

// NewHub создаёт пустой реестр.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[string]*websocket.Conn),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Connect регистрирует соединение пользователя. Второе соединение того же
// пользователя молча замещает первое, старое закрывается.
func (h *Hub) Connect(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	old := h.conns[userID]
	h.conns[userID] = conn
	h.rooms[userID] = make(map[string]struct{})
	h.mu.Unlock()

	if old != nil {
		_ = old.Close(websocket.StatusNormalClosure, "replaced by newer connection")
	}
}

// Disconnect удаляет соединение и членство в комнатах. Безопасно вызывать,
// даже если соединение уже снято — в том числе когда его заместило более
// новое соединение того же пользователя.
func (h *Hub) Disconnect(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if current, ok := h.conns[userID]; ok && (conn == nil || current == conn) {
		delete(h.conns, userID)
		delete(h.rooms, userID)
	}
	h.mu.Unlock()
}

// JoinRoom добавляет пользователя в комнату.
func (h *Hub) JoinRoom(userID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[userID]
	if !ok {
		return
	}
	set[room] = struct{}{}
}

// LeaveRoom убирает пользователя из комнаты.
func (h *Hub) LeaveRoom(userID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.rooms[userID]; ok {
		delete(set, room)
	}
}

// SendDirect отправляет конверт пользователю, если тот подключён.
// Возвращает true при попытке доставки. Запись идёт вне мьютекса,
// чтобы медленный сокет не блокировал реестр.
func (h *Hub) SendDirect(userID string, envelope Envelope) bool {
	h.mu.Lock()
	conn, ok := h.conns[userID]
	h.mu.Unlock()
	if !ok {
		return false
	}

	h.write(userID, conn, envelope)
	return true
}

// BroadcastToRoom доставляет конверт всем подключённым участникам комнаты.
// Отключившиеся участники ничего не получают задним числом.
func (h *Hub) BroadcastToRoom(room string, envelope Envelope) {
	h.mu.Lock()
	targets := make(map[string]*websocket.Conn)
	for userID, rooms := range h.rooms {
		if _, in := rooms[room]; !in {
			continue
		}
		if conn, ok := h.conns[userID]; ok {
			targets[userID] = conn
		}
	}
	h.mu.Unlock()

	for userID, conn := range targets {
		h.write(userID, conn, envelope)
	}
}

// ConnectedCount возвращает число живых соединений.
func (h *Hub) ConnectedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) write(userID string, conn *websocket.Conn, envelope Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, envelope); err != nil {
		h.log.Debug("realtime delivery failed",
			slog.String("user_uid", userID), slog.String("error", err.Error()))
	}
}
