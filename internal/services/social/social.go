// Package social реализует граф подписок: follow, unfollow, поиск
// пользователей и списки подписчиков.
package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// FollowRepository описывает контракт для работы с рёбрами подписок.
type FollowRepository interface {
	CreateFollow(ctx context.Context, followerUID, followingUID string) error
	FollowExists(ctx context.Context, followerUID, followingUID string) (bool, error)
	DeleteFollow(ctx context.Context, followerUID, followingUID string) (int64, error)
	ListFollowers(ctx context.Context, userUID string) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userUID string) ([]models.UserSummary, error)
}

// UserRepository читает карточки пользователей и двигает счётчики подписок.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SearchUsers(ctx context.Context, selfUID, q string, limit int) ([]models.UserSummary, error)
	AdjustFollowCounts(ctx context.Context, followerUID, followingUID string, delta int) error
}

// FollowNotifier уведомляет пользователя о новом подписчике.
type FollowNotifier interface {
	NotifyFollow(ctx context.Context, targetUID string, follower models.UserSummary)
}

const searchLimit = 20

// Service бизнес-логика графа подписок.
type Service struct {
	follows  FollowRepository
	users    UserRepository
	notifier FollowNotifier
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(follows FollowRepository, users UserRepository, notifier FollowNotifier, log *slog.Logger) *Service {
	return &Service{
		follows:  follows,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// Follow создаёт подписку. Подписка на себя и повторная подписка запрещены.
// Счётчики на карточках двигаются отдельными запросами, уведомление
// отправляется по принципу best-effort.
func (s *Service) Follow(ctx context.Context, follower *models.User, targetUID string) error {
	const op = "social.Follow"

	if follower.UID == targetUID {
		return fmt.Errorf("%w: cannot follow yourself", errs.ErrValidation)
	}
	if _, err := s.getUser(ctx, targetUID); err != nil {
		return err
	}
	exists, err := s.follows.FollowExists(ctx, follower.UID, targetUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%w: already following", errs.ErrConflict)
	}

	if err := s.follows.CreateFollow(ctx, follower.UID, targetUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.AdjustFollowCounts(ctx, follower.UID, targetUID, 1); err != nil {
		s.log.Error("failed to adjust follow counts", sl.Err(err))
	}
	s.notifier.NotifyFollow(ctx, targetUID, follower.Summary())
	return nil
}

// Unfollow удаляет подписку.
func (s *Service) Unfollow(ctx context.Context, followerUID, targetUID string) error {
	const op = "social.Unfollow"

	n, err := s.follows.DeleteFollow(ctx, followerUID, targetUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: not following this user", errs.ErrNotFound)
	}
	if err := s.users.AdjustFollowCounts(ctx, followerUID, targetUID, -1); err != nil {
		s.log.Error("failed to adjust follow counts", sl.Err(err))
	}
	return nil
}

// Search ищет пользователей по имени или username.
func (s *Service) Search(ctx context.Context, selfUID, q string) ([]models.UserSummary, error) {
	const op = "social.Search"

	q = strings.TrimSpace(q)
	if len(q) < 2 {
		return nil, fmt.Errorf("%w: search query must be at least 2 characters", errs.ErrValidation)
	}
	result, err := s.users.SearchUsers(ctx, selfUID, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Followers возвращает подписчиков пользователя.
func (s *Service) Followers(ctx context.Context, userUID string) ([]models.UserSummary, error) {
	const op = "social.Followers"

	if _, err := s.getUser(ctx, userUID); err != nil {
		return nil, err
	}
	result, err := s.follows.ListFollowers(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Following возвращает подписки пользователя.
func (s *Service) Following(ctx context.Context, userUID string) ([]models.UserSummary, error) {
	const op = "social.Following"

	if _, err := s.getUser(ctx, userUID); err != nil {
		return nil, err
	}
	result, err := s.follows.ListFollowing(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// IsMutual проверяет взаимность подписки двух пользователей.
func (s *Service) IsMutual(ctx context.Context, a, b string) (bool, error) {
	const op = "social.IsMutual"

	forward, err := s.follows.FollowExists(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !forward {
		return false, nil
	}
	backward, err := s.follows.FollowExists(ctx, b, a)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return backward, nil
}

func (s *Service) getUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "social.getUser"
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
