package suspend

import (
	"bytes"
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
	"github.com/zarverapp/zarver/internal/services/errs"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Suspend(ctx context.Context, actorUID, targetUID, reason string, durationDays *int) error {
	args := m.Called(ctx, actorUID, targetUID, reason, durationDays)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSuspendRequest(t *testing.T, targetUID, actorUID, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/"+targetUID+"/suspend", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", targetUID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actorUID != "" {
		ctx = context.WithValue(ctx, middlewarectx.AdminUID, actorUID)
	}
	return req.WithContext(ctx)
}

func TestSuspendHandler(t *testing.T) {
	tests := []struct {
		name           string
		actorUID       string
		body           string
		setupMock      func(s *MockService)
		expectedStatus int
	}{
		{
			name:     "блокировка на семь дней",
			actorUID: "admin",
			body:     `{"reason":"spam","duration_days":7}`,
			setupMock: func(s *MockService) {
				s.On("Suspend", mock.Anything, "admin", "user123", "spam",
					mock.MatchedBy(func(days *int) bool { return days != nil && *days == 7 })).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "бессрочная блокировка",
			actorUID: "admin",
			body:     `{"reason":"abuse"}`,
			setupMock: func(s *MockService) {
				s.On("Suspend", mock.Anything, "admin", "user123", "abuse",
					mock.MatchedBy(func(days *int) bool { return days == nil })).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "нет идентификатора администратора",
			actorUID:       "",
			body:           `{"reason":"spam"}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "без причины",
			actorUID:       "admin",
			body:           `{"duration_days":7}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "нулевой срок",
			actorUID:       "admin",
			body:           `{"reason":"spam","duration_days":0}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "пользователь не найден",
			actorUID: "admin",
			body:     `{"reason":"spam"}`,
			setupMock: func(s *MockService) {
				s.On("Suspend", mock.Anything, "admin", "user123", "spam", mock.Anything).
					Return(fmt.Errorf("%w: user user123", errs.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := newSuspendRequest(t, "user123", tt.actorUID, tt.body)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}
