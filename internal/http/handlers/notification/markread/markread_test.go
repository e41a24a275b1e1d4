package markread

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) MarkRead(ctx context.Context, notificationUID, userUID string) error {
	args := m.Called(ctx, notificationUID, userUID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMarkReadRequest(notificationUID string, user *models.User) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/notifications/"+notificationUID+"/read", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", notificationUID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = context.WithValue(ctx, middlewarectx.CurrentUser, user)
	}
	return req.WithContext(ctx)
}

func TestMarkReadHandler(t *testing.T) {
	user := &models.User{UID: "user123"}

	tests := []struct {
		name           string
		user           *models.User
		setupMock      func(s *MockService)
		expectedStatus int
	}{
		{
			name: "успешная пометка",
			user: user,
			setupMock: func(s *MockService) {
				s.On("MarkRead", mock.Anything, "notif-1", "user123").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "нет пользователя в контексте",
			user:           nil,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "чужое уведомление выглядит как несуществующее",
			user: user,
			setupMock: func(s *MockService) {
				s.On("MarkRead", mock.Anything, "notif-1", "user123").
					Return(fmt.Errorf("%w: notification notif-1", errs.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newMarkReadRequest("notif-1", tt.user))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}
