// Package exportusers реализует HTTP-обработчик выгрузки пользователей
// в CSV. Ответ отдаётся потоково, выгрузка фиксируется в журнале.
package exportusers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики выгрузки.
type Service interface {
	ExportUsersCSV(ctx context.Context, actorUID string, w io.Writer) error
}

// Handler управляет HTTP-запросами на выгрузку пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.exportusers"
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

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)

	if err := h.service.ExportUsersCSV(r.Context(), actorUID, w); err != nil {
		log.Error("failed to export users", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("users exported")
}
