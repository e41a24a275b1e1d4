package roll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Roll(ctx context.Context, userUID, decisionUID string) (*models.Decision, error) {
	args := m.Called(ctx, userUID, decisionUID)
	var decision *models.Decision
	if args.Get(0) != nil {
		decision = args.Get(0).(*models.Decision)
	}
	return decision, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRollRequest(t *testing.T, decisionUID string, user *models.User) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decisions/"+decisionUID+"/roll", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", decisionUID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = context.WithValue(ctx, middlewarectx.CurrentUser, user)
	}
	return req.WithContext(ctx)
}

func TestRollHandler(t *testing.T) {
	diceResult := 3

	tests := []struct {
		name           string
		user           *models.User
		setupMock      func(s *MockService)
		expectedStatus int
	}{
		{
			name: "успешный бросок",
			user: &models.User{UID: "user123"},
			setupMock: func(s *MockService) {
				s.On("Roll", mock.Anything, "user123", "dec-1").
					Return(&models.Decision{UID: "dec-1", State: models.DecisionStateRolled, DiceResult: &diceResult}, nil)
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
			name: "решение не найдено",
			user: &models.User{UID: "user123"},
			setupMock: func(s *MockService) {
				s.On("Roll", mock.Anything, "user123", "dec-1").
					Return(nil, fmt.Errorf("%w: decision dec-1", errs.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "повторный бросок запрещён",
			user: &models.User{UID: "user123"},
			setupMock: func(s *MockService) {
				s.On("Roll", mock.Anything, "user123", "dec-1").
					Return(nil, fmt.Errorf("%w: dice already rolled", errs.ErrConflict))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "чужое решение",
			user: &models.User{UID: "user123"},
			setupMock: func(s *MockService) {
				s.On("Roll", mock.Anything, "user123", "dec-1").
					Return(nil, fmt.Errorf("%w: not the owner", errs.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := newRollRequest(t, "dec-1", tt.user)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, "OK", body["status"])

				data, ok := body["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, float64(3), data["dice_result"])
			}
			mockService.AssertExpectations(t)
		})
	}
}
