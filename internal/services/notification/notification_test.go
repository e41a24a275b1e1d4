package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/realtime"
	"github.com/zarverapp/zarver/internal/services/errs"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ListNotifications(ctx context.Context, userUID string, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, userUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockRepository) CountUnreadNotifications(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) MarkNotificationRead(ctx context.Context, notificationUID, userUID string) (int64, error) {
	args := m.Called(ctx, notificationUID, userUID)
	return args.Get(0).(int64), args.Error(1)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) SendDirect(userID string, envelope realtime.Envelope) bool {
	args := m.Called(userID, envelope)
	return args.Bool(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_NotifyFollow(t *testing.T) {
	t.Run("запись в базе и попытка живой доставки", func(t *testing.T) {
		repo := new(MockRepository)
		pusher := new(MockPusher)
		service := NewService(repo, pusher, newNoopLogger())

		repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
			return n.Type == models.NotificationFollow && n.UserUID == "target456" &&
				n.Data["follower_id"] == "user123"
		})).Return("n1", nil).Once()
		pusher.On("SendDirect", "target456", mock.MatchedBy(func(e realtime.Envelope) bool {
			return e.Type == "notification"
		})).Return(true).Once()

		service.NotifyFollow(context.Background(), "target456",
			models.UserSummary{UID: "user123", Username: "testuser"})

		repo.AssertExpectations(t)
		pusher.AssertExpectations(t)
	})

	t.Run("офлайн-получатель получает только запись", func(t *testing.T) {
		repo := new(MockRepository)
		pusher := new(MockPusher)
		service := NewService(repo, pusher, newNoopLogger())

		repo.On("CreateNotification", mock.Anything, mock.Anything).Return("n1", nil).Once()
		pusher.On("SendDirect", "target456", mock.Anything).Return(false).Once()

		service.NotifyFollow(context.Background(), "target456",
			models.UserSummary{UID: "user123", Username: "testuser"})

		repo.AssertExpectations(t)
	})

	t.Run("сбой записи не доходит до живого канала", func(t *testing.T) {
		repo := new(MockRepository)
		pusher := new(MockPusher)
		service := NewService(repo, pusher, newNoopLogger())

		repo.On("CreateNotification", mock.Anything, mock.Anything).
			Return("", errors.New("db down")).Once()

		service.NotifyFollow(context.Background(), "target456",
			models.UserSummary{UID: "user123", Username: "testuser"})

		pusher.AssertNotCalled(t, "SendDirect", mock.Anything, mock.Anything)
	})
}

func TestService_NotifyMessage(t *testing.T) {
	repo := new(MockRepository)
	pusher := new(MockPusher)
	service := NewService(repo, pusher, newNoopLogger())

	repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationMessage && n.Data["preview"] == "привет"
	})).Return("n2", nil).Once()
	pusher.On("SendDirect", "partner456", mock.Anything).Return(true).Once()

	service.NotifyMessage(context.Background(), "partner456",
		models.UserSummary{UID: "user123", Username: "testuser"}, "привет")

	repo.AssertExpectations(t)
}

func TestService_MarkRead(t *testing.T) {
	t.Run("успешная пометка", func(t *testing.T) {
		repo := new(MockRepository)
		service := NewService(repo, new(MockPusher), newNoopLogger())

		repo.On("MarkNotificationRead", mock.Anything, "n1", "user123").
			Return(int64(1), nil).Once()

		assert.NoError(t, service.MarkRead(context.Background(), "n1", "user123"))
	})

	t.Run("чужое уведомление неотличимо от несуществующего", func(t *testing.T) {
		repo := new(MockRepository)
		service := NewService(repo, new(MockPusher), newNoopLogger())

		repo.On("MarkNotificationRead", mock.Anything, "n1", "stranger").
			Return(int64(0), nil).Once()

		err := service.MarkRead(context.Background(), "n1", "stranger")
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}

func TestService_List(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockPusher), newNoopLogger())

	repo.On("ListNotifications", mock.Anything, "user123", listLimit).
		Return([]*models.Notification{{UID: "n1"}}, nil).Once()
	repo.On("CountUnreadNotifications", mock.Anything, "user123").Return(3, nil).Once()

	list, err := service.List(context.Background(), "user123")
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := service.UnreadCount(context.Background(), "user123")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}
