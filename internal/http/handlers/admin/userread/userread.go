// Package userread реализует HTTP-обработчик карточки пользователя
// в бэк-офисе.
package userread

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
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики карточки пользователя.
type Service interface {
	GetUser(ctx context.Context, actorUID, userUID string) (*models.User, error)
}

// Handler управляет HTTP-запросами на карточку пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userread"
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

	user, err := h.service.GetUser(r.Context(), actorUID, chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":         user,
		"suspension":   user.Suspension,
		"subscription": user.Subscription,
	}))
}
