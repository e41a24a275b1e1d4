// Package create реализует HTTP-обработчик создания решения.
//
// Handler расходует единицу дневной квоты, запрашивает у генератора
// четыре альтернативы и возвращает созданное решение. Сбой генератора
// не виден клиенту: вместо сгенерированных приходят запасные альтернативы.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Request тело запроса создания решения. Поле is_public принимается
// для совместимости со старыми клиентами; visibility имеет приоритет.
type Request struct {
	Text       string `json:"text" validate:"required,min=3,max=500"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=public followers private"`
	IsPublic   *bool  `json:"is_public"`
}

func (req Request) visibility() string {
	if req.Visibility != "" {
		return req.Visibility
	}
	if req.IsPublic != nil && !*req.IsPublic {
		return models.VisibilityPrivate
	}
	return ""
}

// Service описывает интерфейс бизнес-логики создания решения.
type Service interface {
	Create(ctx context.Context, user *models.User, text, visibility string) (*models.Decision, error)
}

// Handler управляет HTTP-запросами на создание решений.
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

// ServeHTTP godoc
// @Summary Создать решение
// @Description Создает решение с четырьмя альтернативами, расходуя дневную квоту.
// @Tags Decisions
// @Accept json
// @Produce json
// @Param request body Request true "Текст нерешительности"
// @Success 200 {object} response.Response "Созданное решение"
// @Failure 403 {object} response.ErrorResponse "Дневная квота исчерпана"
// @Router /decisions/create [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.decision.create"
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

	decision, err := h.service.Create(r.Context(), user, req.Text, req.visibility())
	if err != nil {
		log.Error("failed to create decision", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("decision created", slog.String("decision_uid", decision.UID))
	render.JSON(w, r, response.OKWithData(decision))
}
