// Package dashboard реализует HTTP-обработчик сводки бэк-офиса.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/services/admin"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики сводки.
type Service interface {
	GetDashboard(ctx context.Context) (*admin.Dashboard, error)
}

// Handler управляет HTTP-запросами на сводку бэк-офиса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	dashboard, err := h.service.GetDashboard(r.Context())
	if err != nil {
		log.Error("failed to build dashboard", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	render.JSON(w, r, response.OKWithData(dashboard))
}
