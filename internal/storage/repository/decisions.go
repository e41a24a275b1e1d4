package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

const decisionColumns = `uid, user_uid, text, alternatives, state, visibility,
	dice_result, selected_option, implemented, helpful_votes, unhelpful_votes,
	created_at, rolled_at, implemented_at`

func scanDecision(row interface{ Scan(...any) error }) (*models.Decision, error) {
	d := &models.Decision{}
	var alternatives []byte
	var dice sql.NullInt64
	var option sql.NullString
	var implemented sql.NullBool
	var rolledAt, implementedAt sql.NullTime
	if err := row.Scan(
		&d.UID, &d.UserUID, &d.Text, &alternatives, &d.State, &d.Visibility,
		&dice, &option, &implemented, &d.Votes.Helpful, &d.Votes.Unhelpful,
		&d.CreatedAt, &rolledAt, &implementedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(alternatives, &d.Alternatives); err != nil {
		return nil, err
	}
	d.Votes.Total = d.Votes.Helpful + d.Votes.Unhelpful
	if dice.Valid {
		v := int(dice.Int64)
		d.DiceResult = &v
	}
	if option.Valid {
		d.SelectedOption = &option.String
	}
	if implemented.Valid {
		d.Implemented = &implemented.Bool
	}
	if rolledAt.Valid {
		d.RolledAt = &rolledAt.Time
	}
	if implementedAt.Valid {
		d.ImplementedAt = &implementedAt.Time
	}
	return d, nil
}

// CreateDecision сохраняет новое решение и возвращает его UID.
func (s *Storage) CreateDecision(ctx context.Context, d models.Decision) (string, error) {
	const op = "storage.CreateDecision"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	alternatives, err := json.Marshal(d.Alternatives)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var newID string
	query := `INSERT INTO decisions (user_uid, text, alternatives, state, visibility)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		d.UserUID, d.Text, alternatives, d.State, d.Visibility).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetDecisionOwned возвращает решение, принадлежащее пользователю.
func (s *Storage) GetDecisionOwned(ctx context.Context, decisionUID, userUID string) (*models.Decision, error) {
	const op = "storage.GetDecisionOwned"
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE uid = $1 AND user_uid = $2`
	d, err := scanDecision(s.DB.QueryRowContext(ctx, query, decisionUID, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// GetPublicDecision возвращает публичное решение по UID.
func (s *Storage) GetPublicDecision(ctx context.Context, decisionUID string) (*models.Decision, error) {
	const op = "storage.GetPublicDecision"
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE uid = $1 AND visibility = 'public'`
	d, err := scanDecision(s.DB.QueryRowContext(ctx, query, decisionUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// SetRoll записывает результат броска. Повторный бросок перезаписывает
// предыдущий результат.
func (s *Storage) SetRoll(ctx context.Context, decisionUID string, dice int, option string) error {
	const op = "storage.SetRoll"
	query := `UPDATE decisions
			  SET dice_result = $1, selected_option = $2, state = $3, rolled_at = NOW()
			  WHERE uid = $4`
	if _, err := s.DB.ExecContext(ctx, query, dice, option, models.DecisionStateRolled, decisionUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetImplemented фиксирует терминальное состояние решения.
func (s *Storage) SetImplemented(ctx context.Context, decisionUID string, implemented bool) error {
	const op = "storage.SetImplemented"
	query := `UPDATE decisions
			  SET implemented = $1, state = $2, implemented_at = NOW()
			  WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, implemented, models.DecisionStateResolved, decisionUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListDecisionsByUser возвращает историю решений пользователя, новые первыми.
func (s *Storage) ListDecisionsByUser(ctx context.Context, userUID string) ([]*models.Decision, error) {
	const op = "storage.ListDecisionsByUser"
	query := `SELECT ` + decisionColumns + ` FROM decisions
			  WHERE user_uid = $1 ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPublicDecisions возвращает публичную ленту: только public-решения
// с состоявшимся броском, вместе с краткими сведениями об авторе.
func (s *Storage) ListPublicDecisions(ctx context.Context, skip, limit int) ([]*models.PublicDecision, error) {
	const op = "storage.ListPublicDecisions"
	query := `SELECT d.uid, d.text, d.selected_option, d.implemented, d.created_at,
			      u.uid, u.username, u.name, u.avatar
			  FROM decisions d
			  JOIN users u ON u.uid = d.user_uid
			  WHERE d.visibility = 'public' AND d.dice_result IS NOT NULL
			  ORDER BY d.created_at DESC
			  OFFSET $1 LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.PublicDecision
	for rows.Next() {
		d := &models.PublicDecision{}
		var option sql.NullString
		var implemented sql.NullBool
		if err = rows.Scan(&d.UID, &d.Text, &option, &implemented, &d.CreatedAt,
			&d.User.UID, &d.User.Username, &d.User.Name, &d.User.Avatar); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if option.Valid {
			d.SelectedOption = &option.String
		}
		if implemented.Valid {
			d.Implemented = &implemented.Bool
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountDecisions возвращает общее число решений.
func (s *Storage) CountDecisions(ctx context.Context) (int, error) {
	const op = "storage.CountDecisions"
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
