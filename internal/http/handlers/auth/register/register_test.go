package register

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

func (m *MockService) Register(ctx context.Context, email, username, name, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, username, name, password)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(s *MockService)
		expectedStatus int
		checkResponse  func(t *testing.T, body map[string]any)
	}{
		{
			name: "успешная регистрация",
			body: `{"email":"ayse@example.com","username":"ayse42","name":"Ayşe","password":"secretpass1","privacy_agreement":true}`,
			setupMock: func(s *MockService) {
				s.On("Register", mock.Anything, "ayse@example.com", "ayse42", "Ayşe", "secretpass1").
					Return(&models.User{UID: "user123", Username: "ayse42"}, "signed-token", nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "OK", body["status"])
				data, ok := body["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "signed-token", data["access_token"])
			},
		},
		{
			name:           "битый JSON",
			body:           `{"email":`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "невалидный email",
			body:           `{"email":"not-an-email","username":"ayse42","name":"Ayşe","password":"secretpass1","privacy_agreement":true}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "короткий пароль",
			body:           `{"email":"ayse@example.com","username":"ayse42","name":"Ayşe","password":"short","privacy_agreement":true}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "без согласия с политикой",
			body:           `{"email":"ayse@example.com","username":"ayse42","name":"Ayşe","password":"secretpass1"}`,
			setupMock:      func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "занятый email",
			body: `{"email":"taken@example.com","username":"ayse42","name":"Ayşe","password":"secretpass1","privacy_agreement":true}`,
			setupMock: func(s *MockService) {
				s.On("Register", mock.Anything, "taken@example.com", "ayse42", "Ayşe", "secretpass1").
					Return(nil, "", fmt.Errorf("%w: email already registered", errs.ErrConflict))
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Error", body["status"])
				assert.Contains(t, body["error"], "email already registered")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.checkResponse != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				tt.checkResponse(t, body)
			}
			mockService.AssertExpectations(t)
		})
	}
}
