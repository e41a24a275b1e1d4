// Package quota ведёт дневной лимит AI-запросов. Премиум-пользователи
// лимита не имеют, для остальных счётчик сбрасывается при первом
// запросе нового дня (UTC).
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// UserRepository описывает операции над счётчиком квоты.
type UserRepository interface {
	ResetDailyQueries(ctx context.Context, userUID string) error
	IncrementDailyQueries(ctx context.Context, userUID string) error
}

// Service проверяет и расходует дневную квоту.
type Service struct {
	users UserRepository
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

// Consume расходует одну единицу квоты пользователя. Инкремент выполняется
// одним запросом к базе; проверка и инкремент не атомарны между собой,
// поэтому при одновременных запросах допускается перерасход на единицы —
// осознанный компромисс вместо блокировки строки пользователя.
func (s *Service) Consume(ctx context.Context, user *models.User) error {
	const op = "quota.Consume"

	if user.Subscription.IsPremium {
		return nil
	}

	used := user.Subscription.QueriesUsedToday
	if !sameUTCDay(user.Subscription.LastQueryDate, time.Now()) {
		if err := s.users.ResetDailyQueries(ctx, user.UID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		used = 0
	}

	if used >= user.Subscription.DailyQueries {
		return fmt.Errorf("%w: daily query limit reached, try again tomorrow or upgrade to premium",
			errs.ErrQuotaExceeded)
	}
	if err := s.users.IncrementDailyQueries(ctx, user.UID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remaining возвращает остаток квоты на сегодня; -1 означает безлимит.
func Remaining(user *models.User, now time.Time) int {
	if user.Subscription.IsPremium {
		return -1
	}
	used := user.Subscription.QueriesUsedToday
	if !sameUTCDay(user.Subscription.LastQueryDate, now) {
		used = 0
	}
	remaining := user.Subscription.DailyQueries - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

func sameUTCDay(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	y1, m1, d1 := last.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
