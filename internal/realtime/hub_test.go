package realtime

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dialClient поднимает тестовый сервер, который регистрирует серверную
// сторону соединения в реестре, и возвращает клиентскую сторону.
func dialClient(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Connect(userID, conn)
		// Держим соединение, пока клиент не закроет свою сторону.
		for {
			if _, _, err := conn.Reader(context.Background()); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	hub.mu.Lock()
	previous := hub.conns[userID]
	hub.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.CloseNow() })

	// Connect вызывается в обработчике асинхронно относительно Dial.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		current := hub.conns[userID]
		hub.mu.Unlock()
		return current != nil && current != previous
	}, 2*time.Second, 10*time.Millisecond)

	return client
}

func readEnvelope(t *testing.T, client *websocket.Conn) Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var envelope Envelope
	require.NoError(t, wsjson.Read(ctx, client, &envelope))
	return envelope
}

func TestHub_SendDirect(t *testing.T) {
	hub := NewHub(newNoopLogger())
	client := dialClient(t, hub, "user1")

	delivered := hub.SendDirect("user1", Envelope{Type: "notification", Payload: map[string]any{"kind": "follow"}})
	assert.True(t, delivered)

	envelope := readEnvelope(t, client)
	assert.Equal(t, "notification", envelope.Type)

	payload, ok := envelope.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "follow", payload["kind"])
}

func TestHub_SendDirectToOfflineUser(t *testing.T) {
	hub := NewHub(newNoopLogger())

	delivered := hub.SendDirect("ghost", Envelope{Type: "notification"})
	assert.False(t, delivered)
}

func TestHub_SecondConnectionReplacesFirst(t *testing.T) {
	hub := NewHub(newNoopLogger())

	first := dialClient(t, hub, "user1")
	second := dialClient(t, hub, "user1")

	assert.Equal(t, 1, hub.ConnectedCount())

	delivered := hub.SendDirect("user1", Envelope{Type: "ping"})
	assert.True(t, delivered)

	envelope := readEnvelope(t, second)
	assert.Equal(t, "ping", envelope.Type)

	// Первый клиент закрыт реестром при замещении.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var discard Envelope
	err := wsjson.Read(ctx, first, &discard)
	assert.Error(t, err)
}

func TestHub_DisconnectRemovesOnlyCurrentConn(t *testing.T) {
	hub := NewHub(newNoopLogger())

	dialClient(t, hub, "user1")

	hub.mu.Lock()
	current := hub.conns["user1"]
	hub.mu.Unlock()

	// Запоздавший Disconnect со старым соединением ничего не трогает.
	hub.Disconnect("user1", &websocket.Conn{})
	assert.Equal(t, 1, hub.ConnectedCount())

	hub.Disconnect("user1", current)
	assert.Equal(t, 0, hub.ConnectedCount())

	delivered := hub.SendDirect("user1", Envelope{Type: "ping"})
	assert.False(t, delivered)
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := NewHub(newNoopLogger())

	inRoom := dialClient(t, hub, "user1")
	alsoInRoom := dialClient(t, hub, "user2")
	outside := dialClient(t, hub, "user3")

	hub.JoinRoom("user1", "decision:42")
	hub.JoinRoom("user2", "decision:42")
	hub.JoinRoom("user3", "decision:99")

	hub.BroadcastToRoom("decision:42", Envelope{Type: "comment"})

	assert.Equal(t, "comment", readEnvelope(t, inRoom).Type)
	assert.Equal(t, "comment", readEnvelope(t, alsoInRoom).Type)

	// Участник другой комнаты ничего не получает.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var discard Envelope
	err := wsjson.Read(ctx, outside, &discard)
	assert.Error(t, err)
}

func TestHub_LeaveRoomStopsDelivery(t *testing.T) {
	hub := NewHub(newNoopLogger())

	client := dialClient(t, hub, "user1")
	hub.JoinRoom("user1", "decision:42")
	hub.LeaveRoom("user1", "decision:42")

	hub.BroadcastToRoom("decision:42", Envelope{Type: "comment"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var discard Envelope
	err := wsjson.Read(ctx, client, &discard)
	assert.Error(t, err)
}

func TestHub_JoinRoomWithoutConnectionIsIgnored(t *testing.T) {
	hub := NewHub(newNoopLogger())

	hub.JoinRoom("ghost", "decision:42")
	hub.BroadcastToRoom("decision:42", Envelope{Type: "comment"})

	assert.Equal(t, 0, hub.ConnectedCount())
}
