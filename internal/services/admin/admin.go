// Package admin реализует бэк-офис: сводку, управление блокировками,
// журнал привилегированных действий и экспорт пользователей в CSV.
// Каждая операция администратора оставляет ровно одну запись в журнале.
package admin

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/zarverapp/zarver/internal/lib/rabbitmq"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

const exportPageSize = 500

// UserRepository описывает операции бэк-офиса над пользователями.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]*models.User, error)
	UpdateSuspension(ctx context.Context, userUID string, state models.SuspensionState) error
	CountUsers(ctx context.Context) (total, suspended int, err error)
}

// CounterRepository отдаёт агрегаты для сводки.
type CounterRepository interface {
	CountDecisions(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
}

// AuditRepository ведёт журнал привилегированных действий.
type AuditRepository interface {
	CreateAdminLog(ctx context.Context, e models.AdminLogEntry) error
	ListAdminLogs(ctx context.Context, skip, limit int) ([]*models.AdminLogEntry, error)
}

// MailPublisher ставит почтовые задания в очередь.
type MailPublisher interface {
	PublishMailJob(routingKey string, payload any) error
}

// Dashboard сводные показатели бэк-офиса.
type Dashboard struct {
	TotalUsers     int `json:"total_users"`
	SuspendedUsers int `json:"suspended_users"`
	TotalDecisions int `json:"total_decisions"`
	TotalMessages  int `json:"total_messages"`
}

// SuspensionJob почтовое задание об изменении блокировки.
type SuspensionJob struct {
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Reason   string     `json:"reason"`
	Until    *time.Time `json:"until,omitempty"`
}

// Service бизнес-логика бэк-офиса.
type Service struct {
	users    UserRepository
	counters CounterRepository
	audit    AuditRepository
	mail     MailPublisher
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, counters CounterRepository, audit AuditRepository,
	mail MailPublisher, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		counters: counters,
		audit:    audit,
		mail:     mail,
		log:      log,
	}
}

// GetDashboard возвращает сводку по пользователям, решениям и сообщениям.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	const op = "admin.GetDashboard"

	total, suspended, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	decisions, err := s.counters.CountDecisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	messages, err := s.counters.CountMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Dashboard{
		TotalUsers:     total,
		SuspendedUsers: suspended,
		TotalDecisions: decisions,
		TotalMessages:  messages,
	}, nil
}

// ListUsers возвращает пользователей постранично. Просмотр списка —
// привилегированное действие и попадает в журнал.
func (s *Service) ListUsers(ctx context.Context, actorUID string, skip, limit int) ([]*models.User, error) {
	const op = "admin.ListUsers"
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}
	result, err := s.users.ListUsers(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.record(ctx, models.AdminLogEntry{
		ActorUID: actorUID,
		Action:   "view_users",
		Details:  map[string]any{"skip": skip, "limit": limit},
	})
	return result, nil
}

// GetUser возвращает карточку пользователя и фиксирует просмотр в журнале.
func (s *Service) GetUser(ctx context.Context, actorUID, userUID string) (*models.User, error) {
	u, err := s.getUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, models.AdminLogEntry{
		ActorUID:  actorUID,
		Action:    "view_user",
		TargetUID: &userUID,
	})
	return u, nil
}

// getUser читает карточку без записи в журнал; используется внутри
// операций, которые фиксируют в журнале собственное действие.
func (s *Service) getUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "admin.getUser"
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Suspend блокирует пользователя: бессрочно или на заданное число дней.
// Пользователю уходит письмо, действие фиксируется в журнале.
func (s *Service) Suspend(ctx context.Context, actorUID, targetUID, reason string, durationDays *int) error {
	const op = "admin.Suspend"

	user, err := s.getUser(ctx, targetUID)
	if err != nil {
		return err
	}

	state := models.SuspensionState{IsSuspended: true, Reason: reason}
	if durationDays != nil {
		if *durationDays <= 0 {
			return fmt.Errorf("%w: duration_days must be positive", errs.ErrValidation)
		}
		until := time.Now().AddDate(0, 0, *durationDays)
		state.Until = &until
	}
	if err := s.users.UpdateSuspension(ctx, targetUID, state); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	details := map[string]any{"reason": reason}
	if durationDays != nil {
		details["duration_days"] = *durationDays
	}
	s.record(ctx, models.AdminLogEntry{
		ActorUID:  actorUID,
		Action:    "suspend_user",
		TargetUID: &targetUID,
		Details:   details,
	})

	if err := s.mail.PublishMailJob(rabbitmq.QueueSuspension, SuspensionJob{
		Email:    user.Email,
		Username: user.Username,
		Reason:   reason,
		Until:    state.Until,
	}); err != nil {
		s.log.Error("failed to enqueue suspension mail", sl.Err(err))
	}
	return nil
}

// Unsuspend снимает блокировку.
func (s *Service) Unsuspend(ctx context.Context, actorUID, targetUID string) error {
	const op = "admin.Unsuspend"

	if _, err := s.getUser(ctx, targetUID); err != nil {
		return err
	}
	if err := s.users.UpdateSuspension(ctx, targetUID, models.SuspensionState{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.record(ctx, models.AdminLogEntry{
		ActorUID:  actorUID,
		Action:    "unsuspend_user",
		TargetUID: &targetUID,
	})
	return nil
}

// Logs возвращает журнал привилегированных действий постранично.
func (s *Service) Logs(ctx context.Context, skip, limit int) ([]*models.AdminLogEntry, error) {
	const op = "admin.Logs"
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}
	result, err := s.audit.ListAdminLogs(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExportUsersCSV выгружает всех пользователей в CSV. Выгрузка идёт
// страницами, чтобы не держать всю таблицу в памяти.
func (s *Service) ExportUsersCSV(ctx context.Context, actorUID string, w io.Writer) error {
	const op = "admin.ExportUsersCSV"

	cw := csv.NewWriter(w)
	header := []string{"id", "username", "email", "name", "created_at",
		"is_suspended", "is_premium", "total_decisions", "implemented_decisions",
		"success_rate", "followers", "following"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for skip := 0; ; skip += exportPageSize {
		page, err := s.users.ListUsers(ctx, skip, exportPageSize)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		for _, u := range page {
			record := []string{
				u.UID, u.Username, u.Email, u.Name, u.CreatedAt.UTC().Format(time.RFC3339),
				strconv.FormatBool(u.Suspension.Active(time.Now())),
				strconv.FormatBool(u.Subscription.IsPremium),
				strconv.Itoa(u.Stats.TotalDecisions),
				strconv.Itoa(u.Stats.ImplementedDecisions),
				strconv.Itoa(u.Stats.SuccessRate),
				strconv.Itoa(u.Stats.Followers),
				strconv.Itoa(u.Stats.Following),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		if len(page) < exportPageSize {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.record(ctx, models.AdminLogEntry{
		ActorUID: actorUID,
		Action:   "export_users",
	})
	return nil
}

// RecordCommentRemoval фиксирует удаление чужого комментария администратором.
func (s *Service) RecordCommentRemoval(ctx context.Context, actorUID, commentUID string) {
	s.record(ctx, models.AdminLogEntry{
		ActorUID: actorUID,
		Action:   "delete_comment",
		Details:  map[string]any{"comment_id": commentUID},
	})
}

// record пишет запись журнала; ошибка записи не прерывает операцию,
// но попадает в лог процесса.
func (s *Service) record(ctx context.Context, e models.AdminLogEntry) {
	if err := s.audit.CreateAdminLog(ctx, e); err != nil {
		s.log.Error("failed to append admin log",
			slog.String("action", e.Action), sl.Err(err))
	}
}
