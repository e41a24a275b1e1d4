// Package jwt реализует генерацию и парсинг JWT токенов сессий.
//
// Каждый токен несёт uid пользователя, username, признак администратора
// и уникальный идентификатор выпуска (jti) — именно по jti отзываются
// отдельные сессии, а не все сессии пользователя разом.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Username             string `json:"username"`
	IsAdmin              bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims        // Subject = uid пользователя, ID = jti
}

// Maker описывает интерфейс для генерации и парсинга токенов сессий.
type Maker interface {
	// GenerateToken создаёт токен для пользователя; isAdmin включает
	// административный признак в claims.
	GenerateToken(userUID, username string, isAdmin bool) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
