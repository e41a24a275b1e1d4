// Package roll реализует HTTP-обработчик броска кубика по решению.
package roll

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

// Service описывает интерфейс бизнес-логики броска кубика.
type Service interface {
	Roll(ctx context.Context, userUID, decisionUID string) (*models.Decision, error)
}

// Handler управляет HTTP-запросами на бросок кубика.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Бросить кубик
// @Description Бросает кубик 1..4 и записывает выбранную альтернативу.
// @Tags Decisions
// @Produce json
// @Param id path string true "UID решения"
// @Success 200 {object} response.Response "Решение с результатом броска"
// @Failure 404 {object} response.ErrorResponse "Решение не найдено"
// @Router /decisions/{id}/roll [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.decision.roll"
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

	decisionUID := chi.URLParam(r, "id")
	decision, err := h.service.Roll(r.Context(), user.UID, decisionUID)
	if err != nil {
		log.Error("failed to roll", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("dice rolled",
		slog.String("decision_uid", decision.UID),
		slog.Int("dice_result", *decision.DiceResult))
	render.JSON(w, r, response.OKWithData(decision))
}
