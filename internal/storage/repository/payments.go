package repository

import (
	"context"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// CreatePayment сохраняет платёж за премиум-подписку.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (string, error) {
	const op = "storage.CreatePayment"
	var newID string
	query := `INSERT INTO payments (user_uid, provider_payment_id, amount, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.ProviderPaymentID, p.Amount, p.Status).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdatePaymentStatus обновляет статус платежа по идентификатору шлюза
// и возвращает UID плательщика.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, providerPaymentID, status string) (string, error) {
	const op = "storage.UpdatePaymentStatus"
	var userUID string
	query := `UPDATE payments SET status = $1 WHERE provider_payment_id = $2 RETURNING user_uid`
	if err := s.DB.QueryRowContext(ctx, query, status, providerPaymentID).Scan(&userUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}

// ListPayments возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	query := `SELECT uid, user_uid, provider_payment_id, amount, status, created_at
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err = rows.Scan(&p.UID, &p.UserUID, &p.ProviderPaymentID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
