package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// CreateAdminLog дописывает запись в административный журнал.
// Путей обновления или удаления записей нет.
func (s *Storage) CreateAdminLog(ctx context.Context, e models.AdminLogEntry) error {
	const op = "storage.CreateAdminLog"
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO admin_logs (actor_uid, action, target_uid, details, origin)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query,
		e.ActorUID, e.Action, e.TargetUID, details, e.Origin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAdminLogs возвращает записи журнала постранично, новые первыми.
func (s *Storage) ListAdminLogs(ctx context.Context, skip, limit int) ([]*models.AdminLogEntry, error) {
	const op = "storage.ListAdminLogs"
	query := `SELECT id, actor_uid, action, target_uid, details, origin, created_at
			  FROM admin_logs
			  ORDER BY created_at DESC
			  OFFSET $1 LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.AdminLogEntry
	for rows.Next() {
		e := &models.AdminLogEntry{}
		var details []byte
		if err = rows.Scan(&e.ID, &e.ActorUID, &e.Action, &e.TargetUID, &details, &e.Origin, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(details) > 0 {
			if err = json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
