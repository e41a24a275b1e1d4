// Package send реализует HTTP-обработчик отправки личного сообщения.
package send

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

// Request тело запроса отправки сообщения.
type Request struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Content     string `json:"content" validate:"required,min=1,max=2000"`
}

// Service описывает интерфейс бизнес-логики отправки сообщений.
type Service interface {
	Send(ctx context.Context, sender *models.User, recipientUID, content string) (*models.Message, error)
}

// Handler управляет HTTP-запросами на отправку сообщений.
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
// @Summary Отправить личное сообщение
// @Description Отправляет сообщение; по умолчанию требуется взаимная подписка.
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body Request true "Получатель и текст"
// @Success 200 {object} response.Response "Созданное сообщение"
// @Failure 403 {object} response.ErrorResponse "Нет взаимной подписки"
// @Router /messages/send [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.message.send"
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

	message, err := h.service.Send(r.Context(), user, req.RecipientID, req.Content)
	if err != nil {
		log.Error("failed to send message", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("message sent", slog.String("message_uid", message.UID))
	render.JSON(w, r, response.OKWithData(message))
}
