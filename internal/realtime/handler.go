package realtime

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/middleware"

	"github.com/zarverapp/zarver/internal/lib/jwt"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
)

// SessionResolver проверяет токен и возвращает пользователя сессии.
type SessionResolver interface {
	ResolveSession(ctx context.Context, tokenStr string) (*models.User, *jwt.CustomClaims, error)
}

// clientMessage входящая команда websocket-клиента.
type clientMessage struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Payload any    `json:"payload"`
}

// Handler обслуживает websocket-подключения. Токен передаётся в query,
// поскольку браузерный WebSocket API не позволяет выставить заголовок.
type Handler struct {
	log      *slog.Logger
	hub      *Hub
	sessions SessionResolver
}

// NewHandler создает новый Handler с переданными логгером, реестром и сессиями.
func NewHandler(log *slog.Logger, hub *Hub, sessions SessionResolver) *Handler {
	return &Handler{log: log, hub: hub, sessions: sessions}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "realtime.Handler"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, _, err := h.sessions.ResolveSession(r.Context(), token)
	if err != nil {
		log.Error("failed to resolve session", sl.Err(err))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error("failed to accept websocket", sl.Err(err))
		return
	}

	h.hub.Connect(user.UID, conn)
	log.Info("websocket connected", slog.String("user_uid", user.UID))

	defer func() {
		h.hub.Disconnect(user.UID, conn)
		conn.CloseNow()
		log.Info("websocket disconnected", slog.String("user_uid", user.UID))
	}()

	for {
		var msg clientMessage
		if err := wsjson.Read(r.Context(), conn, &msg); err != nil {
			return
		}
		switch msg.Type {
		case "join_room":
			if msg.Room != "" {
				h.hub.JoinRoom(user.UID, msg.Room)
			}
		case "leave_room":
			if msg.Room != "" {
				h.hub.LeaveRoom(user.UID, msg.Room)
			}
		case "room_message":
			if msg.Room != "" {
				h.hub.BroadcastToRoom(msg.Room, Envelope{Type: "room_message", Payload: msg.Payload})
			}
		default:
			log.Debug("unknown websocket command", slog.String("type", msg.Type))
		}
	}
}
