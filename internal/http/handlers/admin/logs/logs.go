// Package logs реализует HTTP-обработчик журнала привилегированных действий.
package logs

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики журнала.
type Service interface {
	Logs(ctx context.Context, skip, limit int) ([]*models.AdminLogEntry, error)
}

// Handler управляет HTTP-запросами на журнал действий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logs"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.Logs(r.Context(), skip, limit)
	if err != nil {
		log.Error("failed to list admin logs", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"logs":  entries,
		"count": len(entries),
	}))
}
