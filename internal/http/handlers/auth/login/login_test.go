package login

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(s *MockService)
		expectedStatus int
	}{
		{
			name: "успешный вход",
			body: `{"email":"ayse@example.com","password":"secretpass1"}`,
			setupMock: func(s *MockService) {
				s.On("Login", mock.Anything, "ayse@example.com", "secretpass1").
					Return(&models.User{UID: "user123", Username: "ayse42"}, "signed-token", nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "битый JSON",
			body:           `{"email":`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "без пароля",
			body:           `{"email":"ayse@example.com"}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "неверные учётные данные",
			body: `{"email":"ayse@example.com","password":"wrongpass"}`,
			setupMock: func(s *MockService) {
				s.On("Login", mock.Anything, "ayse@example.com", "wrongpass").
					Return(nil, "", fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "заблокированная учётная запись",
			body: `{"email":"ayse@example.com","password":"secretpass1"}`,
			setupMock: func(s *MockService) {
				s.On("Login", mock.Anything, "ayse@example.com", "secretpass1").
					Return(nil, "", fmt.Errorf("%w: account suspended", errs.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				data, ok := body["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "signed-token", data["access_token"])
			}
			mockService.AssertExpectations(t)
		})
	}
}
