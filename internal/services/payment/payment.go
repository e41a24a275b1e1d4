// Package payment реализует оплату премиум-подписки через внешний шлюз:
// создание платежа, обработку webhook и историю платежей.
package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/paymentprovider"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// PaymentRepository описывает контракт для работы с платежами в базе данных.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p models.Payment) (string, error)
	UpdatePaymentStatus(ctx context.Context, providerPaymentID, status string) (string, error)
	ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error)
}

// UserRepository переводит пользователя на премиум.
type UserRepository interface {
	SetPremium(ctx context.Context, userUID, status string) error
}

// ProviderClient создаёт платежи во внешнем шлюзе.
type ProviderClient interface {
	CreatePayment(reqParams paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
}

// Service бизнес-логика платежей.
type Service struct {
	payments PaymentRepository
	users    UserRepository
	provider ProviderClient
	log      *slog.Logger

	premiumPrice string
}

// NewService создает новый экземпляр Service.
func NewService(payments PaymentRepository, users UserRepository, provider ProviderClient,
	log *slog.Logger, premiumPrice string) *Service {
	return &Service{
		payments:     payments,
		users:        users,
		provider:     provider,
		log:          log,
		premiumPrice: premiumPrice,
	}
}

// CreatePremiumPayment создаёт платёж за премиум во внешнем шлюзе и
// сохраняет его локально в статусе pending. Возвращает ссылку
// подтверждения, на которую клиент перенаправляет пользователя.
func (s *Service) CreatePremiumPayment(ctx context.Context, user *models.User, returnURL string) (*models.Payment, string, error) {
	const op = "payment.CreatePremiumPayment"

	if user.Subscription.IsPremium {
		return nil, "", fmt.Errorf("%w: premium is already active", errs.ErrConflict)
	}

	req := paymentprovider.CreatePaymentRequest{
		Capture:     true,
		Description: "Premium subscription for " + user.Username,
		Metadata:    map[string]string{"user_uid": user.UID},
	}
	req.Amount.Value = s.premiumPrice
	req.Amount.Currency = "RUB"
	req.Confirmation.Type = "redirect"
	req.Confirmation.ReturnURL = returnURL

	resp, err := s.provider.CreatePayment(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: payment provider unavailable: %v", errs.ErrUpstream, err)
	}

	p := models.Payment{
		UserUID:           user.UID,
		ProviderPaymentID: resp.ID,
		Amount:            s.premiumPrice,
		Status:            models.PaymentPending,
	}
	uid, err := s.payments.CreatePayment(ctx, p)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	p.UID = uid
	return &p, resp.Confirmation.ConfirmationURL, nil
}

// HandleWebhook обрабатывает уведомление шлюза об изменении статуса.
// Успешный платёж переводит плательщика на премиум.
func (s *Service) HandleWebhook(ctx context.Context, n paymentprovider.WebhookNotification) error {
	const op = "payment.HandleWebhook"

	var status string
	switch n.Event {
	case "payment.succeeded":
		status = models.PaymentSucceeded
	case "payment.canceled":
		status = models.PaymentCanceled
	default:
		return fmt.Errorf("%w: unknown webhook event %q", errs.ErrValidation, n.Event)
	}

	userUID, err := s.payments.UpdatePaymentStatus(ctx, n.Object.ID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if status == models.PaymentSucceeded {
		if err := s.users.SetPremium(ctx, userUID, "premium"); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("user upgraded to premium", slog.String("user_uid", userUID))
	}
	return nil
}

// ListPayments возвращает платежи пользователя.
func (s *Service) ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "payment.ListPayments"
	result, err := s.payments.ListPayments(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
