package repository

import (
	"context"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// CreateComment сохраняет комментарий к решению и возвращает его UID.
func (s *Storage) CreateComment(ctx context.Context, decisionUID, userUID, content string) (string, error) {
	const op = "storage.CreateComment"
	var newID string
	query := `INSERT INTO comments (decision_uid, user_uid, content)
			  VALUES ($1, $2, $3)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query, decisionUID, userUID, content).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListComments возвращает неудалённые комментарии решения с данными авторов,
// новые первыми.
func (s *Storage) ListComments(ctx context.Context, decisionUID string) ([]*models.Comment, error) {
	const op = "storage.ListComments"
	query := `SELECT c.uid, c.decision_uid, c.user_uid, u.username, u.avatar,
			      c.content, c.likes, c.created_at
			  FROM comments c
			  JOIN users u ON u.uid = c.user_uid
			  WHERE c.decision_uid = $1 AND c.is_deleted = FALSE
			  ORDER BY c.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, decisionUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err = rows.Scan(&c.UID, &c.DecisionUID, &c.UserUID, &c.Username, &c.UserAvatar,
			&c.Content, &c.Likes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCommentOwner возвращает владельца комментария.
func (s *Storage) GetCommentOwner(ctx context.Context, commentUID string) (string, error) {
	const op = "storage.GetCommentOwner"
	var owner string
	query := `SELECT user_uid FROM comments WHERE uid = $1 AND is_deleted = FALSE`
	if err := s.DB.QueryRowContext(ctx, query, commentUID).Scan(&owner); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return owner, nil
}

// SoftDeleteComment помечает комментарий удалённым.
func (s *Storage) SoftDeleteComment(ctx context.Context, commentUID string) error {
	const op = "storage.SoftDeleteComment"
	query := `UPDATE comments SET is_deleted = TRUE, deleted_at = NOW() WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, commentUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
