package repository

import (
	"context"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// CreateFollow создаёт ребро подписки.
func (s *Storage) CreateFollow(ctx context.Context, followerUID, followingUID string) error {
	const op = "storage.CreateFollow"
	query := `INSERT INTO follows (follower_uid, following_uid) VALUES ($1, $2)`
	if _, err := s.DB.ExecContext(ctx, query, followerUID, followingUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FollowExists проверяет наличие ребра подписки.
func (s *Storage) FollowExists(ctx context.Context, followerUID, followingUID string) (bool, error) {
	const op = "storage.FollowExists"
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_uid = $1 AND following_uid = $2)`
	if err := s.DB.QueryRowContext(ctx, query, followerUID, followingUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// DeleteFollow удаляет ребро подписки, возвращает число удалённых строк.
func (s *Storage) DeleteFollow(ctx context.Context, followerUID, followingUID string) (int64, error) {
	const op = "storage.DeleteFollow"
	query := `DELETE FROM follows WHERE follower_uid = $1 AND following_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, followerUID, followingUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Storage) listFollowEdge(ctx context.Context, op, query, userUID string) ([]models.UserSummary, error) {
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err = rows.Scan(&u.UID, &u.Username, &u.Name, &u.Avatar); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListFollowers возвращает подписчиков пользователя.
func (s *Storage) ListFollowers(ctx context.Context, userUID string) ([]models.UserSummary, error) {
	query := `SELECT u.uid, u.username, u.name, u.avatar
			  FROM follows f JOIN users u ON u.uid = f.follower_uid
			  WHERE f.following_uid = $1
			  ORDER BY f.created_at DESC`
	return s.listFollowEdge(ctx, "storage.ListFollowers", query, userUID)
}

// ListFollowing возвращает подписки пользователя.
func (s *Storage) ListFollowing(ctx context.Context, userUID string) ([]models.UserSummary, error) {
	query := `SELECT u.uid, u.username, u.name, u.avatar
			  FROM follows f JOIN users u ON u.uid = f.following_uid
			  WHERE f.follower_uid = $1
			  ORDER BY f.created_at DESC`
	return s.listFollowEdge(ctx, "storage.ListFollowing", query, userUID)
}
