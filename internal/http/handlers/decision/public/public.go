// Package public реализует HTTP-обработчик публичной ленты решений.
// Конечная точка открытая, страницы отдаются из 30-секундного кеша.
package public

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

// Service описывает интерфейс бизнес-логики публичной ленты.
type Service interface {
	PublicFeed(ctx context.Context, skip, limit int) ([]*models.PublicDecision, error)
}

// Handler управляет HTTP-запросами публичной ленты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Публичная лента
// @Description Возвращает страницу публичных решений с состоявшимся броском.
// @Tags Decisions
// @Produce json
// @Param skip query int false "Смещение страницы"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Success 200 {object} response.Response "Страница ленты"
// @Router /decisions/public [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.decision.public"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	feed, err := h.service.PublicFeed(r.Context(), skip, limit)
	if err != nil {
		log.Error("failed to load public feed", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"decisions": feed,
		"count":     len(feed),
	}))
}
