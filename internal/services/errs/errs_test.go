package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", fmt.Errorf("%w: bad input", ErrValidation), http.StatusBadRequest},
		{"conflict", fmt.Errorf("%w: already exists", ErrConflict), http.StatusBadRequest},
		{"unauthorized", fmt.Errorf("%w: invalid credentials", ErrUnauthorized), http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: not allowed", ErrForbidden), http.StatusForbidden},
		{"quota", fmt.Errorf("%w: limit reached", ErrQuotaExceeded), http.StatusForbidden},
		{"not found", fmt.Errorf("%w: missing", ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("%w: provider down", ErrUpstream), http.StatusBadGateway},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	expected := fmt.Errorf("%w: email already registered", ErrConflict)
	assert.Equal(t, "conflict: email already registered", UserMessage(expected))

	// Внутренние детали не раскрываются.
	internal := errors.New("pq: duplicate key value violates unique constraint")
	assert.Equal(t, "internal service error", UserMessage(internal))
}
