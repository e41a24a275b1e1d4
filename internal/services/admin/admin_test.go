package admin

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zarverapp/zarver/internal/lib/rabbitmq"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

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

func (m *MockUserRepository) ListUsers(ctx context.Context, skip, limit int) ([]*models.User, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateSuspension(ctx context.Context, userUID string, state models.SuspensionState) error {
	args := m.Called(ctx, userUID, state)
	return args.Error(0)
}

func (m *MockUserRepository) CountUsers(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockCounterRepository struct {
	mock.Mock
}

func (m *MockCounterRepository) CountDecisions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCounterRepository) CountMessages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) CreateAdminLog(ctx context.Context, e models.AdminLogEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAuditRepository) ListAdminLogs(ctx context.Context, skip, limit int) ([]*models.AdminLogEntry, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AdminLogEntry), args.Error(1)
}

type MockMail struct {
	mock.Mock
}

func (m *MockMail) PublishMailJob(routingKey string, payload any) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestService(users *MockUserRepository, counters *MockCounterRepository,
	audit *MockAuditRepository, mail *MockMail) *Service {
	return NewService(users, counters, audit, mail, newNoopLogger())
}

func TestService_GetDashboard(t *testing.T) {
	users := new(MockUserRepository)
	counters := new(MockCounterRepository)
	service := newTestService(users, counters, new(MockAuditRepository), new(MockMail))

	users.On("CountUsers", mock.Anything).Return(100, 5, nil).Once()
	counters.On("CountDecisions", mock.Anything).Return(250, nil).Once()
	counters.On("CountMessages", mock.Anything).Return(1000, nil).Once()

	d, err := service.GetDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, d.TotalUsers)
	assert.Equal(t, 5, d.SuspendedUsers)
	assert.Equal(t, 250, d.TotalDecisions)
	assert.Equal(t, 1000, d.TotalMessages)
}

func TestService_ListUsers(t *testing.T) {
	t.Run("просмотр списка оставляет ровно одну запись журнала", func(t *testing.T) {
		users := new(MockUserRepository)
		audit := new(MockAuditRepository)
		service := newTestService(users, new(MockCounterRepository), audit, new(MockMail))

		users.On("ListUsers", mock.Anything, 0, 50).
			Return([]*models.User{{UID: "user123"}}, nil).Once()
		audit.On("CreateAdminLog", mock.Anything, mock.MatchedBy(func(e models.AdminLogEntry) bool {
			return e.Action == "view_users" && e.ActorUID == "admin"
		})).Return(nil).Once()

		result, err := service.ListUsers(context.Background(), "admin", 0, 0)
		require.NoError(t, err)
		assert.Len(t, result, 1)
		audit.AssertExpectations(t)
		audit.AssertNumberOfCalls(t, "CreateAdminLog", 1)
	})

	t.Run("ошибка хранилища не попадает в журнал", func(t *testing.T) {
		users := new(MockUserRepository)
		audit := new(MockAuditRepository)
		service := newTestService(users, new(MockCounterRepository), audit, new(MockMail))

		users.On("ListUsers", mock.Anything, 0, 50).
			Return(nil, errors.New("connection lost")).Once()

		_, err := service.ListUsers(context.Background(), "admin", 0, 0)
		assert.Error(t, err)
		audit.AssertNumberOfCalls(t, "CreateAdminLog", 0)
	})
}

func TestService_GetUser(t *testing.T) {
	t.Run("просмотр карточки оставляет ровно одну запись журнала", func(t *testing.T) {
		users := new(MockUserRepository)
		audit := new(MockAuditRepository)
		service := newTestService(users, new(MockCounterRepository), audit, new(MockMail))

		users.On("GetUser", mock.Anything, "target456").
			Return(&models.User{UID: "target456"}, nil).Once()
		audit.On("CreateAdminLog", mock.Anything, mock.MatchedBy(func(e models.AdminLogEntry) bool {
			return e.Action == "view_user" && e.ActorUID == "admin" &&
				e.TargetUID != nil && *e.TargetUID == "target456"
		})).Return(nil).Once()

		u, err := service.GetUser(context.Background(), "admin", "target456")
		require.NoError(t, err)
		assert.Equal(t, "target456", u.UID)
		audit.AssertExpectations(t)
		audit.AssertNumberOfCalls(t, "CreateAdminLog", 1)
	})

	t.Run("несуществующий пользователь", func(t *testing.T) {
		users := new(MockUserRepository)
		audit := new(MockAuditRepository)
		service := newTestService(users, new(MockCounterRepository), audit, new(MockMail))

		users.On("GetUser", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

		_, err := service.GetUser(context.Background(), "admin", "ghost")
		assert.True(t, errors.Is(err, errs.ErrNotFound))
		audit.AssertNumberOfCalls(t, "CreateAdminLog", 0)
	})
}

func TestService_Suspend(t *testing.T) {
	target := &models.User{UID: "target456", Email: "target@example.com", Username: "target"}

	t.Run("временная блокировка с письмом и записью журнала", func(t *testing.T) {
		users := new(MockUserRepository)
		audit := new(MockAuditRepository)
		mail := new(MockMail)
		service := newTestService(users, new(MockCounterRepository), audit, mail)

		days := 7
		users.On("GetUser", mock.Anything, "target456").Return(target, nil).Once()
		users.On("UpdateSuspension", mock.Anything, "target456",
			mock.MatchedBy(func(s models.SuspensionState) bool {
				return s.IsSuspended && s.Reason == "spam" && s.Until != nil &&
					s.Until.After(time.Now().AddDate(0, 0, 6))
			})).Return(nil).Once()
		audit.On("CreateAdminLog", mock.Anything, mock.MatchedBy(func(e models.AdminLogEntry) bool {
			return e.Action == "suspend_user" && e.ActorUID == "admin" &&
				e.Details["duration_days"] == 7
		})).Return(nil).Once()
		mail.On("PublishMailJob", rabbitmq.QueueSuspension,
			mock.MatchedBy(func(j SuspensionJob) bool {
				return j.Email == "target@example.com" && j.Until != nil
			})).Return(nil).Once()

		err := service.Suspend(context.Background(), "admin", "target456", "spam", &days)
		assert.NoError(t, err)
		users.AssertExpectations(t)
		audit.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("бессрочная блокировка без срока", func(t *testing.T) {
		users := new(MockUserRepository)
		audit := new(MockAuditRepository)
		mail := new(MockMail)
		service := newTestService(users, new(MockCounterRepository), audit, mail)

		users.On("GetUser", mock.Anything, "target456").Return(target, nil).Once()
		users.On("UpdateSuspension", mock.Anything, "target456",
			mock.MatchedBy(func(s models.SuspensionState) bool {
				return s.IsSuspended && s.Until == nil
			})).Return(nil).Once()
		audit.On("CreateAdminLog", mock.Anything, mock.Anything).Return(nil).Once()
		mail.On("PublishMailJob", rabbitmq.QueueSuspension,
			mock.MatchedBy(func(j SuspensionJob) bool { return j.Until == nil })).
			Return(nil).Once()

		assert.NoError(t, service.Suspend(context.Background(), "admin", "target456", "abuse", nil))
	})

	t.Run("неположительный срок отклоняется", func(t *testing.T) {
		users := new(MockUserRepository)
		service := newTestService(users, new(MockCounterRepository),
			new(MockAuditRepository), new(MockMail))

		users.On("GetUser", mock.Anything, "target456").Return(target, nil).Once()

		days := 0
		err := service.Suspend(context.Background(), "admin", "target456", "spam", &days)
		assert.True(t, errors.Is(err, errs.ErrValidation))
	})

	t.Run("несуществующий пользователь", func(t *testing.T) {
		users := new(MockUserRepository)
		service := newTestService(users, new(MockCounterRepository),
			new(MockAuditRepository), new(MockMail))

		users.On("GetUser", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

		err := service.Suspend(context.Background(), "admin", "ghost", "spam", nil)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}

func TestService_Unsuspend(t *testing.T) {
	users := new(MockUserRepository)
	audit := new(MockAuditRepository)
	service := newTestService(users, new(MockCounterRepository), audit, new(MockMail))

	users.On("GetUser", mock.Anything, "target456").
		Return(&models.User{UID: "target456"}, nil).Once()
	users.On("UpdateSuspension", mock.Anything, "target456", models.SuspensionState{}).
		Return(nil).Once()
	audit.On("CreateAdminLog", mock.Anything, mock.MatchedBy(func(e models.AdminLogEntry) bool {
		return e.Action == "unsuspend_user"
	})).Return(nil).Once()

	assert.NoError(t, service.Unsuspend(context.Background(), "admin", "target456"))
	audit.AssertExpectations(t)
}

func TestService_ExportUsersCSV(t *testing.T) {
	users := new(MockUserRepository)
	audit := new(MockAuditRepository)
	service := newTestService(users, new(MockCounterRepository), audit, new(MockMail))

	page := []*models.User{
		{
			UID:       "user123",
			Username:  "testuser",
			Email:     "user@example.com",
			Name:      "Test",
			CreatedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			Stats: models.UserStats{
				TotalDecisions:       10,
				ImplementedDecisions: 7,
				SuccessRate:          70,
				Followers:            5,
				Following:            8,
			},
		},
	}
	users.On("ListUsers", mock.Anything, 0, exportPageSize).Return(page, nil).Once()
	audit.On("CreateAdminLog", mock.Anything, mock.MatchedBy(func(e models.AdminLogEntry) bool {
		return e.Action == "export_users" && e.ActorUID == "admin"
	})).Return(nil).Once()

	var buf bytes.Buffer
	require.NoError(t, service.ExportUsersCSV(context.Background(), "admin", &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "user123", records[1][0])
	assert.Equal(t, "testuser", records[1][1])
	assert.Equal(t, "70", records[1][9])
	audit.AssertExpectations(t)
}

func TestService_Logs(t *testing.T) {
	audit := new(MockAuditRepository)
	service := newTestService(new(MockUserRepository), new(MockCounterRepository),
		audit, new(MockMail))

	audit.On("ListAdminLogs", mock.Anything, 0, 50).
		Return([]*models.AdminLogEntry{{Action: "suspend_user"}}, nil).Once()

	// Некорректные параметры страницы нормализуются.
	logs, err := service.Logs(context.Background(), -1, 1000)
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	audit.AssertExpectations(t)
}
