// Package implement реализует HTTP-обработчик отметки исхода решения.
package implement

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики отметки исхода.
type Service interface {
	Implement(ctx context.Context, userUID, decisionUID string, implemented bool) (*models.Decision, error)
}

// Handler управляет HTTP-запросами на отметку исхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.decision.implement"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	implemented, err := strconv.ParseBool(r.URL.Query().Get("implemented"))
	if err != nil {
		log.Error("invalid implemented parameter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("implemented must be true or false"))
		return
	}

	decisionUID := chi.URLParam(r, "id")
	decision, err := h.service.Implement(r.Context(), user.UID, decisionUID, implemented)
	if err != nil {
		log.Error("failed to mark outcome", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("outcome recorded",
		slog.String("decision_uid", decision.UID),
		slog.Bool("implemented", implemented))
	render.JSON(w, r, response.OKWithData(decision))
}
