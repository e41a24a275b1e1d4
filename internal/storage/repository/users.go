package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zarverapp/zarver/internal/models"
)

const userColumns = `uid, username, email, name, password_hash, avatar, is_admin, created_at,
	is_suspended, suspension_reason, suspended_until,
	total_decisions, implemented_decisions, success_rate, followers_count, following_count,
	is_premium, daily_queries, queries_used_today, last_query_date, subscription_status`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var suspendedUntil sql.NullTime
	var lastQueryDate sql.NullTime
	if err := row.Scan(
		&u.UID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.Avatar, &u.IsAdmin, &u.CreatedAt,
		&u.Suspension.IsSuspended, &u.Suspension.Reason, &suspendedUntil,
		&u.Stats.TotalDecisions, &u.Stats.ImplementedDecisions, &u.Stats.SuccessRate,
		&u.Stats.Followers, &u.Stats.Following,
		&u.Subscription.IsPremium, &u.Subscription.DailyQueries, &u.Subscription.QueriesUsedToday,
		&lastQueryDate, &u.Subscription.SubscriptionStatus,
	); err != nil {
		return nil, err
	}
	if suspendedUntil.Valid {
		u.Suspension.Until = &suspendedUntil.Time
	}
	if lastQueryDate.Valid {
		u.Subscription.LastQueryDate = &lastQueryDate.Time
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (username, email, name, password_hash, avatar, is_admin, daily_queries)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Name, user.PasswordHash, user.Avatar,
		user.IsAdmin, user.Subscription.DailyQueries).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UserExists сообщает, заняты ли email и username.
func (s *Storage) UserExists(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error) {
	const op = "storage.UserExists"
	query := `SELECT
			      EXISTS (SELECT 1 FROM users WHERE email = $1),
			      EXISTS (SELECT 1 FROM users WHERE username = $2)`
	if err = s.DB.QueryRowContext(ctx, query, email, username).Scan(&emailTaken, &usernameTaken); err != nil {
		return false, false, fmt.Errorf("%s: %w", op, err)
	}
	return emailTaken, usernameTaken, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SearchUsers ищет пользователей по имени или username без учёта регистра,
// исключая самого вызывающего.
func (s *Storage) SearchUsers(ctx context.Context, selfUID, q string, limit int) ([]models.UserSummary, error) {
	const op = "storage.SearchUsers"
	query := `SELECT uid, username, name, avatar
			  FROM users
			  WHERE uid <> $1 AND (name ILIKE '%' || $2 || '%' OR username ILIKE '%' || $2 || '%')
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, selfUID, q, limit)
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

// ListUsers возвращает пользователей постранично, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, skip, limit int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSuspension выставляет состояние блокировки пользователя.
func (s *Storage) UpdateSuspension(ctx context.Context, userUID string, state models.SuspensionState) error {
	const op = "storage.UpdateSuspension"
	query := `UPDATE users
			  SET is_suspended = $1, suspension_reason = $2, suspended_until = $3
			  WHERE uid = $4`
	res, err := s.DB.ExecContext(ctx, query, state.IsSuspended, state.Reason, state.Until, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// ResetDailyQueries обнуляет дневной счётчик квоты и фиксирует текущую
// дату в UTC, чтобы сравнение суток на стороне сервиса не зависело от
// часового пояса базы.
func (s *Storage) ResetDailyQueries(ctx context.Context, userUID string) error {
	const op = "storage.ResetDailyQueries"
	query := `UPDATE users
			  SET queries_used_today = 0, last_query_date = (NOW() AT TIME ZONE 'UTC')::date
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IncrementDailyQueries увеличивает дневной счётчик одним запросом,
// исключая гонку read-modify-write между конкурентными запросами.
func (s *Storage) IncrementDailyQueries(ctx context.Context, userUID string) error {
	const op = "storage.IncrementDailyQueries"
	query := `UPDATE users
			  SET queries_used_today = queries_used_today + 1, last_query_date = (NOW() AT TIME ZONE 'UTC')::date
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplyImplementStats пересчитывает статистику решений одним запросом.
// Каждый вызов увеличивает total_decisions — намеренно, поведение
// не идемпотентно (см. services/decision).
func (s *Storage) ApplyImplementStats(ctx context.Context, userUID string, implemented bool) error {
	const op = "storage.ApplyImplementStats"
	query := `UPDATE users
			  SET total_decisions = total_decisions + 1,
			      implemented_decisions = implemented_decisions + CASE WHEN $1 THEN 1 ELSE 0 END,
			      success_rate = ROUND(100.0 * (implemented_decisions + CASE WHEN $1 THEN 1 ELSE 0 END)
			          / (total_decisions + 1))
			  WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, implemented, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AdjustFollowCounts сдвигает счётчики подписок у обеих сторон ребра.
func (s *Storage) AdjustFollowCounts(ctx context.Context, followerUID, followingUID string, delta int) error {
	const op = "storage.AdjustFollowCounts"
	if _, err := s.DB.ExecContext(ctx,
		`UPDATE users SET following_count = following_count + $1 WHERE uid = $2`,
		delta, followerUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.DB.ExecContext(ctx,
		`UPDATE users SET followers_count = followers_count + $1 WHERE uid = $2`,
		delta, followingUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetPremium переводит пользователя на премиум-тариф.
func (s *Storage) SetPremium(ctx context.Context, userUID, status string) error {
	const op = "storage.SetPremium"
	query := `UPDATE users SET is_premium = TRUE, subscription_status = $1 WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetPasswordResetToken сохраняет хэш одноразового токена сброса пароля.
func (s *Storage) SetPasswordResetToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error {
	const op = "storage.SetPasswordResetToken"
	query := `UPDATE users SET password_reset_token = $1, password_reset_expires = $2 WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, tokenHash, expires, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByResetToken возвращает пользователя с действующим токеном сброса.
func (s *Storage) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE password_reset_token = $1 AND password_reset_expires > NOW()`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdatePassword меняет хэш пароля и сбрасывает токен восстановления.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdatePassword"
	query := `UPDATE users
			  SET password_hash = $1, password_reset_token = NULL, password_reset_expires = NULL
			  WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, passwordHash, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsers возвращает общее число пользователей и число активных блокировок.
func (s *Storage) CountUsers(ctx context.Context) (total, suspended int, err error) {
	const op = "storage.CountUsers"
	query := `SELECT COUNT(*),
			      COUNT(*) FILTER (WHERE is_suspended
			          AND (suspended_until IS NULL OR suspended_until > NOW()))
			  FROM users`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&total, &suspended); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, suspended, nil
}
