// Package middlewarectx содержит HTTP middleware для проверки JWT токенов
// и ограничения частоты запросов.
//
// JWTMiddleware на каждом запросе заново разрешает сессию: подпись
// токена, список отозванных jti и актуальное состояние блокировки.
// В случае ошибки возвращается статус соответствующего класса ошибки.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/jwt"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// CurrentUser — ключ для свежей карточки пользователя в контексте
	CurrentUser Key = "current_user"
	// Claims — ключ для разобранных claims токена в контексте
	Claims Key = "claims"
	// AdminUID — ключ для идентификатора администратора в контексте
	AdminUID Key = "admin_uid"
)

// SessionService описывает интерфейс сервиса для разрешения сессий.
type SessionService interface {
	ResolveSession(ctx context.Context, token string) (*models.User, *jwt.CustomClaims, error)
	ResolveAdminSession(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке
// Authorization и кладёт в контекст карточку пользователя и claims.
func JWTMiddleware(authService SessionService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := bearerToken(r)
			if !ok {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			user, claims, err := authService.ResolveSession(r.Context(), tokenStr)
			if err != nil {
				log.Error("failed to resolve session", sl.Err(err))
				w.WriteHeader(errs.HTTPStatus(err))
				render.JSON(w, r, response.Error(errs.UserMessage(err)))
				return
			}
			ctx := context.WithValue(r.Context(), CurrentUser, user)
			ctx = context.WithValue(ctx, Claims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware проверяет токен администратора и кладёт в контекст
// идентификатор действующего лица для журнала.
func AdminMiddleware(authService SessionService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := bearerToken(r)
			if !ok {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := authService.ResolveAdminSession(r.Context(), tokenStr)
			if err != nil {
				log.Error("failed to resolve admin session", sl.Err(err))
				w.WriteHeader(errs.HTTPStatus(err))
				render.JSON(w, r, response.Error(errs.UserMessage(err)))
				return
			}
			ctx := context.WithValue(r.Context(), AdminUID, claims.Subject)
			ctx = context.WithValue(ctx, Claims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext достаёт карточку пользователя, положенную JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CurrentUser).(*models.User)
	return user, ok && user != nil
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}
