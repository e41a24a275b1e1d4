// Package decision реализует жизненный цикл решения: создание с четырьмя
// альтернативами, бросок кубика, отметку о выполнении, историю и
// публичную ленту с комментариями и голосами.
package decision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/zarverapp/zarver/internal/config"
	"github.com/zarverapp/zarver/internal/generator"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

const feedCacheTTL = 30 * time.Second

// DecisionRepository описывает контракт для работы с решениями в базе данных.
type DecisionRepository interface {
	CreateDecision(ctx context.Context, d models.Decision) (string, error)
	GetDecisionOwned(ctx context.Context, decisionUID, userUID string) (*models.Decision, error)
	GetPublicDecision(ctx context.Context, decisionUID string) (*models.Decision, error)
	SetRoll(ctx context.Context, decisionUID string, dice int, option string) error
	SetImplemented(ctx context.Context, decisionUID string, implemented bool) error
	ListDecisionsByUser(ctx context.Context, userUID string) ([]*models.Decision, error)
	ListPublicDecisions(ctx context.Context, skip, limit int) ([]*models.PublicDecision, error)

	CreateComment(ctx context.Context, decisionUID, userUID, content string) (string, error)
	ListComments(ctx context.Context, decisionUID string) ([]*models.Comment, error)
	GetCommentOwner(ctx context.Context, commentUID string) (string, error)
	SoftDeleteComment(ctx context.Context, commentUID string) error

	UpsertVote(ctx context.Context, decisionUID, userUID, voteType string) (bool, error)
	CountVotes(ctx context.Context, decisionUID string) (models.VoteStats, error)
	UpdateDecisionVoteStats(ctx context.Context, decisionUID string, stats models.VoteStats) error
}

// StatsRepository обновляет агрегаты на карточке пользователя.
type StatsRepository interface {
	ApplyImplementStats(ctx context.Context, userUID string, implemented bool) error
}

// QuotaConsumer расходует дневную квоту AI-запросов.
type QuotaConsumer interface {
	Consume(ctx context.Context, user *models.User) error
}

// Generator выдаёт альтернативы для текста нерешительности.
type Generator interface {
	Generate(ctx context.Context, decisionText string) ([]string, error)
}

// FeedCache кеширует страницы публичной ленты.
type FeedCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service бизнес-логика решений.
type Service struct {
	decisions DecisionRepository
	stats     StatsRepository
	quota     QuotaConsumer
	gen       Generator
	cache     FeedCache
	policy    config.Policy
	log       *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(decisions DecisionRepository, stats StatsRepository, quota QuotaConsumer,
	gen Generator, cache FeedCache, policy config.Policy, log *slog.Logger) *Service {
	return &Service{
		decisions: decisions,
		stats:     stats,
		quota:     quota,
		gen:       gen,
		cache:     cache,
		policy:    policy,
		log:       log,
	}
}

// Create расходует квоту и создаёт решение с четырьмя альтернативами.
// Квота списывается до обращения к генератору, и любой сбой генератора
// подменяется фиксированным запасным списком — пользователь в этом
// случае всё равно получает решение.
func (s *Service) Create(ctx context.Context, user *models.User, text, visibility string) (*models.Decision, error) {
	const op = "decision.Create"

	switch visibility {
	case "":
		visibility = models.VisibilityPublic
	case models.VisibilityPublic, models.VisibilityFollowers, models.VisibilityPrivate:
	default:
		return nil, fmt.Errorf("%w: unknown visibility %q", errs.ErrValidation, visibility)
	}

	if err := s.quota.Consume(ctx, user); err != nil {
		return nil, err
	}

	alternatives, err := s.gen.Generate(ctx, text)
	if err != nil {
		s.log.Warn("generator failed, using fallback alternatives", sl.Err(err))
		alternatives = generator.FallbackAlternatives
	}

	d := models.Decision{
		UserUID:      user.UID,
		Text:         text,
		Alternatives: alternatives,
		State:        models.DecisionStateCreated,
		Visibility:   visibility,
	}
	uid, err := s.decisions.CreateDecision(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.getOwned(ctx, uid, user.UID)
}

// Roll бросает кубик 1..4 и записывает выбранную альтернативу.
// Повторный бросок по ещё не завершённому решению перезаписывает
// прежний результат, если это разрешено политикой.
func (s *Service) Roll(ctx context.Context, userUID, decisionUID string) (*models.Decision, error) {
	const op = "decision.Roll"

	d, err := s.getOwned(ctx, decisionUID, userUID)
	if err != nil {
		return nil, err
	}
	switch d.State {
	case models.DecisionStateResolved:
		return nil, fmt.Errorf("%w: decision already resolved", errs.ErrConflict)
	case models.DecisionStateRolled:
		if !s.policy.AllowReroll {
			return nil, fmt.Errorf("%w: dice already rolled", errs.ErrConflict)
		}
	}

	dice := rand.IntN(generator.AlternativesCount) + 1
	option := d.Alternatives[dice-1]
	if err := s.decisions.SetRoll(ctx, decisionUID, dice, option); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.getOwned(ctx, decisionUID, userUID)
}

// Implement отмечает решение выполненным или невыполненным и пересчитывает
// статистику пользователя. Каждый вызов увеличивает счётчик решений:
// поведение намеренно не идемпотентно, повторная отметка считается
// отдельным исходом. Политика StrictImplementOnce запрещает повтор.
func (s *Service) Implement(ctx context.Context, userUID, decisionUID string, implemented bool) (*models.Decision, error) {
	const op = "decision.Implement"

	d, err := s.getOwned(ctx, decisionUID, userUID)
	if err != nil {
		return nil, err
	}
	if d.State == models.DecisionStateCreated {
		return nil, fmt.Errorf("%w: roll the dice before marking the outcome", errs.ErrConflict)
	}
	if d.State == models.DecisionStateResolved && s.policy.StrictImplementOnce {
		return nil, fmt.Errorf("%w: outcome already recorded", errs.ErrConflict)
	}

	if err := s.decisions.SetImplemented(ctx, decisionUID, implemented); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.stats.ApplyImplementStats(ctx, userUID, implemented); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.getOwned(ctx, decisionUID, userUID)
}

// History возвращает все решения пользователя, новые первыми.
func (s *Service) History(ctx context.Context, userUID string) ([]*models.Decision, error) {
	const op = "decision.History"
	result, err := s.decisions.ListDecisionsByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// PublicFeed возвращает страницу публичной ленты. Страницы кешируются
// на 30 секунд, лента допускает слегка устаревшие данные.
func (s *Service) PublicFeed(ctx context.Context, skip, limit int) ([]*models.PublicDecision, error) {
	const op = "decision.PublicFeed"

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	cacheKey := "feed:" + strconv.Itoa(skip) + ":" + strconv.Itoa(limit)
	var cached []*models.PublicDecision
	if found, err := s.cache.Get(cacheKey, &cached); err != nil {
		s.log.Warn("feed cache read failed", sl.Err(err))
	} else if found {
		return cached, nil
	}

	result, err := s.decisions.ListPublicDecisions(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(cacheKey, result, feedCacheTTL); err != nil {
		s.log.Warn("feed cache write failed", sl.Err(err))
	}
	return result, nil
}

// AddComment добавляет комментарий к публичному решению.
func (s *Service) AddComment(ctx context.Context, user *models.User, decisionUID, content string) (*models.Comment, error) {
	const op = "decision.AddComment"

	if _, err := s.getPublic(ctx, decisionUID); err != nil {
		return nil, err
	}
	uid, err := s.decisions.CreateComment(ctx, decisionUID, user.UID, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Comment{
		UID:         uid,
		DecisionUID: decisionUID,
		UserUID:     user.UID,
		Username:    user.Username,
		UserAvatar:  user.Avatar,
		Content:     content,
		CreatedAt:   time.Now(),
	}, nil
}

// ListComments возвращает комментарии публичного решения.
func (s *Service) ListComments(ctx context.Context, decisionUID string) ([]*models.Comment, error) {
	const op = "decision.ListComments"

	if _, err := s.getPublic(ctx, decisionUID); err != nil {
		return nil, err
	}
	result, err := s.decisions.ListComments(ctx, decisionUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteComment скрывает комментарий. Разрешено автору комментария
// и администратору.
func (s *Service) DeleteComment(ctx context.Context, userUID string, isAdmin bool, commentUID string) error {
	const op = "decision.DeleteComment"

	owner, err := s.decisions.GetCommentOwner(ctx, commentUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: comment not found", errs.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if owner != userUID && !isAdmin {
		return fmt.Errorf("%w: only the author can delete a comment", errs.ErrForbidden)
	}
	if err := s.decisions.SoftDeleteComment(ctx, commentUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Vote сохраняет голос за публичное решение. Повторный голос меняет тип,
// агрегаты на решении пересчитываются из таблицы голосов.
func (s *Service) Vote(ctx context.Context, userUID, decisionUID, voteType string) (models.VoteStats, error) {
	const op = "decision.Vote"

	if voteType != models.VoteHelpful && voteType != models.VoteUnhelpful {
		return models.VoteStats{}, fmt.Errorf("%w: unknown vote type %q", errs.ErrValidation, voteType)
	}
	d, err := s.getPublic(ctx, decisionUID)
	if err != nil {
		return models.VoteStats{}, err
	}
	if d.UserUID == userUID {
		return models.VoteStats{}, fmt.Errorf("%w: cannot vote for your own decision", errs.ErrForbidden)
	}

	if _, err := s.decisions.UpsertVote(ctx, decisionUID, userUID, voteType); err != nil {
		return models.VoteStats{}, fmt.Errorf("%s: %w", op, err)
	}
	stats, err := s.decisions.CountVotes(ctx, decisionUID)
	if err != nil {
		return models.VoteStats{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.decisions.UpdateDecisionVoteStats(ctx, decisionUID, stats); err != nil {
		return models.VoteStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// VoteStats возвращает счётчики голосов публичного решения.
func (s *Service) VoteStats(ctx context.Context, decisionUID string) (models.VoteStats, error) {
	const op = "decision.VoteStats"

	if _, err := s.getPublic(ctx, decisionUID); err != nil {
		return models.VoteStats{}, err
	}
	stats, err := s.decisions.CountVotes(ctx, decisionUID)
	if err != nil {
		return models.VoteStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func (s *Service) getOwned(ctx context.Context, decisionUID, userUID string) (*models.Decision, error) {
	const op = "decision.getOwned"
	d, err := s.decisions.GetDecisionOwned(ctx, decisionUID, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: decision not found", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (s *Service) getPublic(ctx context.Context, decisionUID string) (*models.Decision, error) {
	const op = "decision.getPublic"
	d, err := s.decisions.GetPublicDecision(ctx, decisionUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: decision not found", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}
