package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		userUID  string
		username string
		isAdmin  bool
	}{
		{
			name:     "regular user",
			userUID:  "7c9e6679-7425-40de-944b-e07fc1f90ae7",
			username: "regular_user",
			isAdmin:  false,
		},
		{
			name:     "admin session",
			userUID:  "admin",
			username: "admin_user",
			isAdmin:  true,
		},
		{
			name:     "user with numbers in username",
			userUID:  "550e8400-e29b-41d4-a716-446655440000",
			username: "user123",
			isAdmin:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userUID, tt.username, tt.isAdmin)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userUID, claims.Subject)
			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.isAdmin, claims.IsAdmin)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_EachIssueGetsFreshJTI(t *testing.T) {
	maker := NewJWTMaker("test_secret_key", 15*time.Minute)

	first, err := maker.GenerateToken("user123", "testuser", false)
	require.NoError(t, err)
	second, err := maker.GenerateToken("user123", "testuser", false)
	require.NoError(t, err)

	firstClaims, err := maker.ParseToken(first)
	require.NoError(t, err)
	secondClaims, err := maker.ParseToken(second)
	require.NoError(t, err)

	// Отзыв одного выпуска не должен задевать другой.
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("user123", "testuser", false)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "malformed token",
			token: "invalid.token.here",
		},
		{
			name:  "expired token",
			token: createExpiredToken(t, secretKey),
		},
		{
			name:  "wrong secret key",
			token: createTokenWithWrongSecret(t),
		},
		{
			name:  "tampered token",
			token: validToken + "tampered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func createExpiredToken(t *testing.T, secretKey string) string {
	maker := NewJWTMaker(secretKey, -time.Hour)
	token, err := maker.GenerateToken("user123", "testuser", false)
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, err := wrongMaker.GenerateToken("user123", "testuser", false)
	require.NoError(t, err)
	return token
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker("test_secret_key", 100*time.Millisecond)

	token, err := maker.GenerateToken("user123", "testuser", false)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)

	time.Sleep(150 * time.Millisecond)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
