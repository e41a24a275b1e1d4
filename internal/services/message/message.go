// Package message реализует личные сообщения: отправку, список переписок
// и просмотр чата с пометкой о прочтении.
package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// MessageRepository описывает контракт для работы с сообщениями в базе данных.
type MessageRepository interface {
	CreateMessage(ctx context.Context, m models.Message) (string, error)
	ListConversations(ctx context.Context, userUID string) ([]models.Conversation, error)
	ListChat(ctx context.Context, userUID, partnerUID string) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, senderUID, recipientUID string) error
}

// UserRepository читает карточки пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// MutualChecker проверяет взаимность подписки.
type MutualChecker interface {
	IsMutual(ctx context.Context, a, b string) (bool, error)
}

// MessageNotifier уведомляет получателя о новом сообщении.
type MessageNotifier interface {
	NotifyMessage(ctx context.Context, recipientUID string, sender models.UserSummary, preview string)
}

// Service бизнес-логика личных сообщений.
type Service struct {
	messages MessageRepository
	users    UserRepository
	mutual   MutualChecker
	notifier MessageNotifier
	log      *slog.Logger

	requireMutualFollow bool
}

// NewService создает новый экземпляр Service.
func NewService(messages MessageRepository, users UserRepository, mutual MutualChecker,
	notifier MessageNotifier, log *slog.Logger, requireMutualFollow bool) *Service {
	return &Service{
		messages:            messages,
		users:               users,
		mutual:              mutual,
		notifier:            notifier,
		log:                 log,
		requireMutualFollow: requireMutualFollow,
	}
}

// Send отправляет личное сообщение. По умолчанию переписка доступна
// только при взаимной подписке, политика отключаема.
func (s *Service) Send(ctx context.Context, sender *models.User, recipientUID, content string) (*models.Message, error) {
	const op = "message.Send"

	if sender.UID == recipientUID {
		return nil, fmt.Errorf("%w: cannot message yourself", errs.ErrValidation)
	}
	if _, err := s.getUser(ctx, recipientUID); err != nil {
		return nil, err
	}

	if s.requireMutualFollow {
		mutual, err := s.mutual.IsMutual(ctx, sender.UID, recipientUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !mutual {
			return nil, fmt.Errorf("%w: messaging requires mutual follow", errs.ErrForbidden)
		}
	}

	m := models.Message{
		SenderUID:    sender.UID,
		RecipientUID: recipientUID,
		Content:      content,
	}
	uid, err := s.messages.CreateMessage(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.UID = uid

	preview := content
	if len(preview) > 80 {
		preview = preview[:80]
	}
	s.notifier.NotifyMessage(ctx, recipientUID, sender.Summary(), preview)
	return &m, nil
}

// Conversations возвращает сводку переписок пользователя.
func (s *Service) Conversations(ctx context.Context, userUID string) ([]models.Conversation, error) {
	const op = "message.Conversations"
	result, err := s.messages.ListConversations(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Chat возвращает переписку с собеседником и помечает входящие
// прочитанными одной операцией над всей перепиской.
func (s *Service) Chat(ctx context.Context, userUID, partnerUID string) ([]*models.Message, error) {
	const op = "message.Chat"

	if _, err := s.getUser(ctx, partnerUID); err != nil {
		return nil, err
	}
	result, err := s.messages.ListChat(ctx, userUID, partnerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.messages.MarkConversationRead(ctx, partnerUID, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) getUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "message.getUser"
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
