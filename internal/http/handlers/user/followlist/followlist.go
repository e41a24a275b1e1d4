// Package followlist реализует HTTP-обработчики списков подписчиков и
// подписок пользователя. Обе конечные точки открытые, направление
// задаётся при создании обработчика.
package followlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Направления списка.
const (
	ModeFollowers = "followers"
	ModeFollowing = "following"
)

// Service описывает интерфейс бизнес-логики списков подписок.
type Service interface {
	Followers(ctx context.Context, userUID string) ([]models.UserSummary, error)
	Following(ctx context.Context, userUID string) ([]models.UserSummary, error)
}

// Handler управляет HTTP-запросами на списки подписок.
type Handler struct {
	log     *slog.Logger
	service Service
	mode    string
}

// New создает новый Handler для заданного направления списка.
func New(log *slog.Logger, service Service, mode string) *Handler {
	return &Handler{log: log, service: service, mode: mode}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.followlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("mode", h.mode),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "id")

	var result []models.UserSummary
	var err error
	if h.mode == ModeFollowers {
		result, err = h.service.Followers(r.Context(), userUID)
	} else {
		result, err = h.service.Following(r.Context(), userUID)
	}
	if err != nil {
		log.Error("failed to list follow edge", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"users": result,
		"count": len(result),
	}))
}
