package models

import "time"

// Статусы платежа за премиум-подписку.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentCanceled  = "canceled"
)

// Payment платёж за премиум-подписку через внешний платёжный шлюз.
type Payment struct {
	UID               string    `json:"id"`
	UserUID           string    `json:"user_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Amount            string    `json:"amount"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}
