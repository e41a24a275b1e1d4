// Package unsuspend реализует HTTP-обработчик снятия блокировки.
package unsuspend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики снятия блокировки.
type Service interface {
	Unsuspend(ctx context.Context, actorUID, targetUID string) error
}

// Handler управляет HTTP-запросами на снятие блокировки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.unsuspend"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actorUID, ok := r.Context().Value(middlewarectx.AdminUID).(string)
	if !ok || actorUID == "" {
		log.Error("admin identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	targetUID := chi.URLParam(r, "id")
	if err := h.service.Unsuspend(r.Context(), actorUID, targetUID); err != nil {
		log.Error("failed to unsuspend user", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("user unsuspended", slog.String("target_uid", targetUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "user unsuspended",
	}))
}
