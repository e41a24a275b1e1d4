// Package suspend реализует HTTP-обработчик блокировки пользователя.
// Блокировка бессрочная или на заданное число дней; пользователю
// уходит письмо, действие попадает в журнал.
package suspend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Request тело запроса блокировки.
type Request struct {
	Reason       string `json:"reason" validate:"required,max=300"`
	DurationDays *int   `json:"duration_days" validate:"omitempty,min=1"`
}

// Service описывает интерфейс бизнес-логики блокировки.
type Service interface {
	Suspend(ctx context.Context, actorUID, targetUID, reason string, durationDays *int) error
}

// Handler управляет HTTP-запросами на блокировку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.suspend"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	targetUID := chi.URLParam(r, "id")
	if err := h.service.Suspend(r.Context(), actorUID, targetUID, req.Reason, req.DurationDays); err != nil {
		log.Error("failed to suspend user", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("user suspended", slog.String("target_uid", targetUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "user suspended",
	}))
}
