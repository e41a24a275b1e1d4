package message

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, msg models.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockMessageRepository) ListConversations(ctx context.Context, userUID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *MockMessageRepository) ListChat(ctx context.Context, userUID, partnerUID string) ([]*models.Message, error) {
	args := m.Called(ctx, userUID, partnerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, senderUID, recipientUID string) error {
	args := m.Called(ctx, senderUID, recipientUID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockMutualChecker struct {
	mock.Mock
}

func (m *MockMutualChecker) IsMutual(ctx context.Context, a, b string) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyMessage(ctx context.Context, recipientUID string, sender models.UserSummary, preview string) {
	m.Called(ctx, recipientUID, sender, preview)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Send(t *testing.T) {
	sender := &models.User{UID: "user123", Username: "testuser"}

	t.Run("успешная отправка уведомляет получателя", func(t *testing.T) {
		messages := new(MockMessageRepository)
		users := new(MockUserRepository)
		mutual := new(MockMutualChecker)
		notifier := new(MockNotifier)
		service := NewService(messages, users, mutual, notifier, newNoopLogger(), true)

		users.On("GetUser", mock.Anything, "partner456").
			Return(&models.User{UID: "partner456"}, nil).Once()
		mutual.On("IsMutual", mock.Anything, "user123", "partner456").Return(true, nil).Once()
		messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
			return m.SenderUID == "user123" && m.RecipientUID == "partner456"
		})).Return("msg1", nil).Once()
		notifier.On("NotifyMessage", mock.Anything, "partner456",
			mock.MatchedBy(func(s models.UserSummary) bool { return s.UID == "user123" }),
			"привет").Once()

		m, err := service.Send(context.Background(), sender, "partner456", "привет")
		assert.NoError(t, err)
		assert.Equal(t, "msg1", m.UID)
		messages.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("без взаимной подписки отправка запрещена", func(t *testing.T) {
		users := new(MockUserRepository)
		mutual := new(MockMutualChecker)
		service := NewService(new(MockMessageRepository), users, mutual,
			new(MockNotifier), newNoopLogger(), true)

		users.On("GetUser", mock.Anything, "partner456").
			Return(&models.User{UID: "partner456"}, nil).Once()
		mutual.On("IsMutual", mock.Anything, "user123", "partner456").Return(false, nil).Once()

		_, err := service.Send(context.Background(), sender, "partner456", "привет")
		assert.True(t, errors.Is(err, errs.ErrForbidden))
	})

	t.Run("политика позволяет отключить проверку взаимности", func(t *testing.T) {
		messages := new(MockMessageRepository)
		users := new(MockUserRepository)
		mutual := new(MockMutualChecker)
		notifier := new(MockNotifier)
		service := NewService(messages, users, mutual, notifier, newNoopLogger(), false)

		users.On("GetUser", mock.Anything, "partner456").
			Return(&models.User{UID: "partner456"}, nil).Once()
		messages.On("CreateMessage", mock.Anything, mock.Anything).Return("msg1", nil).Once()
		notifier.On("NotifyMessage", mock.Anything, "partner456", mock.Anything, mock.Anything).Once()

		_, err := service.Send(context.Background(), sender, "partner456", "привет")
		assert.NoError(t, err)
		mutual.AssertNotCalled(t, "IsMutual", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("сообщение себе запрещено", func(t *testing.T) {
		service := NewService(new(MockMessageRepository), new(MockUserRepository),
			new(MockMutualChecker), new(MockNotifier), newNoopLogger(), true)

		_, err := service.Send(context.Background(), sender, "user123", "привет")
		assert.True(t, errors.Is(err, errs.ErrValidation))
	})

	t.Run("несуществующий получатель", func(t *testing.T) {
		users := new(MockUserRepository)
		service := NewService(new(MockMessageRepository), users, new(MockMutualChecker),
			new(MockNotifier), newNoopLogger(), true)

		users.On("GetUser", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

		_, err := service.Send(context.Background(), sender, "ghost", "привет")
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("длинный текст обрезается в превью уведомления", func(t *testing.T) {
		messages := new(MockMessageRepository)
		users := new(MockUserRepository)
		mutual := new(MockMutualChecker)
		notifier := new(MockNotifier)
		service := NewService(messages, users, mutual, notifier, newNoopLogger(), true)

		long := strings.Repeat("a", 200)
		users.On("GetUser", mock.Anything, "partner456").
			Return(&models.User{UID: "partner456"}, nil).Once()
		mutual.On("IsMutual", mock.Anything, "user123", "partner456").Return(true, nil).Once()
		messages.On("CreateMessage", mock.Anything, mock.Anything).Return("msg1", nil).Once()
		notifier.On("NotifyMessage", mock.Anything, "partner456", mock.Anything,
			strings.Repeat("a", 80)).Once()

		_, err := service.Send(context.Background(), sender, "partner456", long)
		assert.NoError(t, err)
		notifier.AssertExpectations(t)
	})
}

func TestService_Chat(t *testing.T) {
	t.Run("просмотр чата помечает входящие прочитанными", func(t *testing.T) {
		messages := new(MockMessageRepository)
		users := new(MockUserRepository)
		service := NewService(messages, users, new(MockMutualChecker),
			new(MockNotifier), newNoopLogger(), true)

		users.On("GetUser", mock.Anything, "partner456").
			Return(&models.User{UID: "partner456"}, nil).Once()
		messages.On("ListChat", mock.Anything, "user123", "partner456").
			Return([]*models.Message{{UID: "msg1"}}, nil).Once()
		messages.On("MarkConversationRead", mock.Anything, "partner456", "user123").
			Return(nil).Once()

		chat, err := service.Chat(context.Background(), "user123", "partner456")
		assert.NoError(t, err)
		assert.Len(t, chat, 1)
		messages.AssertExpectations(t)
	})

	t.Run("чат с несуществующим собеседником", func(t *testing.T) {
		users := new(MockUserRepository)
		service := NewService(new(MockMessageRepository), users, new(MockMutualChecker),
			new(MockNotifier), newNoopLogger(), true)

		users.On("GetUser", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

		_, err := service.Chat(context.Background(), "user123", "ghost")
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}
