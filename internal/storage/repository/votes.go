package repository

import (
	"context"
	"fmt"

	"github.com/zarverapp/zarver/internal/models"
)

// UpsertVote сохраняет голос пользователя за решение. Повторный голос
// того же пользователя обновляет тип голоса, а не создаёт дубликат.
// Возвращает true, если голос был создан впервые.
func (s *Storage) UpsertVote(ctx context.Context, decisionUID, userUID, voteType string) (bool, error) {
	const op = "storage.UpsertVote"
	var created bool
	query := `INSERT INTO votes (decision_uid, user_uid, vote_type)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (decision_uid, user_uid)
			  DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = NOW()
			  RETURNING (xmax = 0);`
	if err := s.DB.QueryRowContext(ctx, query, decisionUID, userUID, voteType).Scan(&created); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CountVotes подсчитывает голоса по решению.
func (s *Storage) CountVotes(ctx context.Context, decisionUID string) (models.VoteStats, error) {
	const op = "storage.CountVotes"
	var stats models.VoteStats
	query := `SELECT
			      COUNT(*) FILTER (WHERE vote_type = 'helpful'),
			      COUNT(*) FILTER (WHERE vote_type = 'unhelpful')
			  FROM votes WHERE decision_uid = $1`
	if err := s.DB.QueryRowContext(ctx, query, decisionUID).Scan(&stats.Helpful, &stats.Unhelpful); err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}
	stats.Total = stats.Helpful + stats.Unhelpful
	return stats, nil
}

// UpdateDecisionVoteStats записывает агрегированные счётчики на решение.
func (s *Storage) UpdateDecisionVoteStats(ctx context.Context, decisionUID string, stats models.VoteStats) error {
	const op = "storage.UpdateDecisionVoteStats"
	query := `UPDATE decisions SET helpful_votes = $1, unhelpful_votes = $2 WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, stats.Helpful, stats.Unhelpful, decisionUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
