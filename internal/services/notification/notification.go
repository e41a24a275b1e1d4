// Package notification реализует разветвление уведомлений: сначала
// персистентная запись в базе, затем попытка realtime-доставки.
// Запись создаётся всегда, доставка офлайн-пользователю молча
// пропускается.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/realtime"
	"github.com/zarverapp/zarver/internal/services/errs"
)

const listLimit = 50

// NotificationRepository описывает контракт для работы с уведомлениями.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) (string, error)
	ListNotifications(ctx context.Context, userUID string, limit int) ([]*models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userUID string) (int, error)
	MarkNotificationRead(ctx context.Context, notificationUID, userUID string) (int64, error)
}

// Pusher доставляет конверт подключённому пользователю.
type Pusher interface {
	SendDirect(userID string, envelope realtime.Envelope) bool
}

// Service бизнес-логика уведомлений.
type Service struct {
	notifications NotificationRepository
	pusher        Pusher
	log           *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(notifications NotificationRepository, pusher Pusher, log *slog.Logger) *Service {
	return &Service{
		notifications: notifications,
		pusher:        pusher,
		log:           log,
	}
}

// NotifyFollow уведомляет пользователя о новом подписчике.
func (s *Service) NotifyFollow(ctx context.Context, targetUID string, follower models.UserSummary) {
	s.notify(ctx, models.Notification{
		UserUID: targetUID,
		Type:    models.NotificationFollow,
		Content: follower.Username + " started following you",
		Data: map[string]any{
			"follower_id":       follower.UID,
			"follower_username": follower.Username,
		},
	})
}

// NotifyMessage уведомляет получателя о новом личном сообщении.
func (s *Service) NotifyMessage(ctx context.Context, recipientUID string, sender models.UserSummary, preview string) {
	s.notify(ctx, models.Notification{
		UserUID: recipientUID,
		Type:    models.NotificationMessage,
		Content: "new message from " + sender.Username,
		Data: map[string]any{
			"sender_id":       sender.UID,
			"sender_username": sender.Username,
			"preview":         preview,
		},
	})
}

// notify сохраняет уведомление и пытается доставить его по живому каналу.
// Ошибка записи логируется, но не прерывает породившую операцию.
func (s *Service) notify(ctx context.Context, n models.Notification) {
	uid, err := s.notifications.CreateNotification(ctx, n)
	if err != nil {
		s.log.Error("failed to persist notification",
			slog.String("type", n.Type), sl.Err(err))
		return
	}
	n.UID = uid

	if !s.pusher.SendDirect(n.UserUID, realtime.Envelope{Type: "notification", Payload: n}) {
		s.log.Debug("recipient offline, notification stored only",
			slog.String("user_uid", n.UserUID))
	}
}

// List возвращает последние уведомления пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Notification, error) {
	const op = "notification.List"
	result, err := s.notifications.ListNotifications(ctx, userUID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UnreadCount возвращает число непрочитанных уведомлений.
func (s *Service) UnreadCount(ctx context.Context, userUID string) (int, error) {
	const op = "notification.UnreadCount"
	count, err := s.notifications.CountUnreadNotifications(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// MarkRead помечает уведомление прочитанным. Чужое уведомление
// неотличимо от несуществующего.
func (s *Service) MarkRead(ctx context.Context, notificationUID, userUID string) error {
	const op = "notification.MarkRead"
	n, err := s.notifications.MarkNotificationRead(ctx, notificationUID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: notification not found", errs.ErrNotFound)
	}
	return nil
}
