// Package paymentwebhook реализует HTTP-обработчик уведомлений платёжного
// шлюза. Конечная точка без пользовательской аутентификации, подлинность
// запроса подтверждается общим секретом в заголовке.
package paymentwebhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/paymentprovider"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики обработки webhook.
type Service interface {
	HandleWebhook(ctx context.Context, n paymentprovider.WebhookNotification) error
}

// Handler управляет HTTP-запросами от платёжного шлюза.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{log: log, service: service, webhookSecret: webhookSecret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	got := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		log.Error("webhook secret mismatch")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var notification paymentprovider.WebhookNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		log.Error("failed to decode webhook", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), notification); err != nil {
		log.Error("failed to handle webhook", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}

	log.Info("webhook processed", slog.String("event", notification.Event))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "processed",
	}))
}
