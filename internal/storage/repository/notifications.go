package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// CreateNotification сохраняет уведомление и возвращает его UID.
// Запись создаётся непрочитанной.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	const op = "storage.CreateNotification"
	data, err := json.Marshal(n.Data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var newID string
	query := `INSERT INTO notifications (user_uid, type, content, data)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		n.UserUID, n.Type, n.Content, data).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListNotifications возвращает уведомления пользователя, новые первыми.
func (s *Storage) ListNotifications(ctx context.Context, userUID string, limit int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	query := `SELECT uid, user_uid, type, content, data, is_read, created_at
			  FROM notifications
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var data []byte
		if err = rows.Scan(&n.UID, &n.UserUID, &n.Type, &n.Content, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(data) > 0 {
			if err = json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		result = append(result, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountUnreadNotifications возвращает число непрочитанных уведомлений.
func (s *Storage) CountUnreadNotifications(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountUnreadNotifications"
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_uid = $1 AND is_read = FALSE`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// MarkNotificationRead помечает уведомление прочитанным, только если оно
// принадлежит пользователю. Возвращает число обновлённых строк.
func (s *Storage) MarkNotificationRead(ctx context.Context, notificationUID, userUID string) (int64, error) {
	const op = "storage.MarkNotificationRead"
	query := `UPDATE notifications SET is_read = TRUE WHERE uid = $1 AND user_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, notificationUID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
