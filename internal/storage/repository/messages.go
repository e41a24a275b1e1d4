package repository

import (
	"context"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// CreateMessage сохраняет личное сообщение и возвращает его UID.
func (s *Storage) CreateMessage(ctx context.Context, m models.Message) (string, error) {
	const op = "storage.CreateMessage"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO messages (sender_uid, recipient_uid, content)
			  VALUES ($1, $2, $3)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		m.SenderUID, m.RecipientUID, m.Content).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListConversations возвращает сводку переписок: последний обмен с каждым
// собеседником и число непрочитанных входящих.
func (s *Storage) ListConversations(ctx context.Context, userUID string) ([]models.Conversation, error) {
	const op = "storage.ListConversations"
	query := `SELECT m.partner_uid, u.username, u.name, u.avatar, m.content, m.created_at,
			      (SELECT COUNT(*) FROM messages
			       WHERE sender_uid = m.partner_uid AND recipient_uid = $1 AND is_read = FALSE)
			  FROM (
			      SELECT DISTINCT ON (partner_uid) partner_uid, content, created_at
			      FROM (
			          SELECT CASE WHEN sender_uid = $1 THEN recipient_uid ELSE sender_uid END AS partner_uid,
			                 content, created_at
			          FROM messages
			          WHERE sender_uid = $1 OR recipient_uid = $1
			      ) t
			      ORDER BY partner_uid, created_at DESC
			  ) m
			  JOIN users u ON u.uid = m.partner_uid
			  ORDER BY m.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err = rows.Scan(&c.User.UID, &c.User.Username, &c.User.Name, &c.User.Avatar,
			&c.LastMessage, &c.Time, &c.Unread); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListChat возвращает переписку двух пользователей в хронологическом порядке.
func (s *Storage) ListChat(ctx context.Context, userUID, partnerUID string) ([]*models.Message, error) {
	const op = "storage.ListChat"
	query := `SELECT uid, sender_uid, recipient_uid, content, is_read, created_at
			  FROM messages
			  WHERE (sender_uid = $1 AND recipient_uid = $2)
			     OR (sender_uid = $2 AND recipient_uid = $1)
			  ORDER BY created_at ASC`
	rows, err := s.DB.QueryContext(ctx, query, userUID, partnerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err = rows.Scan(&m.UID, &m.SenderUID, &m.RecipientUID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkConversationRead помечает прочитанными все входящие от собеседника.
func (s *Storage) MarkConversationRead(ctx context.Context, senderUID, recipientUID string) error {
	const op = "storage.MarkConversationRead"
	query := `UPDATE messages SET is_read = TRUE
			  WHERE sender_uid = $1 AND recipient_uid = $2 AND is_read = FALSE`
	if _, err := s.DB.ExecContext(ctx, query, senderUID, recipientUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountMessages возвращает общее число сообщений.
func (s *Storage) CountMessages(ctx context.Context) (int, error) {
	const op = "storage.CountMessages"
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
