// Package auth содержит логику регистрации, входа, выхода и проверки
// сессий. Каждый запрос проверяется заново: подпись токена, список
// отозванных jti и актуальное состояние блокировки из базы.
package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zarverapp/zarver/internal/lib/jwt"
	"github.com/zarverapp/zarver/internal/lib/password"
	"github.com/zarverapp/zarver/internal/lib/rabbitmq"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/models"
	"github.com/zarverapp/zarver/internal/services/errs"
)

const resetTokenTTL = time.Hour

// Аватар по умолчанию детерминирован от username, без загрузки файлов.
const avatarURLTemplate = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	UserExists(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateSuspension(ctx context.Context, userUID string, state models.SuspensionState) error
	SetPasswordResetToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error
	GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	UpdatePassword(ctx context.Context, userUID, passwordHash string) error
}

// TokenRevoker хранит список отозванных jti.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuditLogger дописывает записи в административный журнал.
type AuditLogger interface {
	CreateAdminLog(ctx context.Context, e models.AdminLogEntry) error
}

// MailPublisher ставит почтовые задания в очередь.
type MailPublisher interface {
	PublishMailJob(routingKey string, payload any) error
}

// AuthService отвечает за учётные записи и жизненный цикл сессий.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	revoker  TokenRevoker
	audit    AuditLogger
	mail     MailPublisher
	log      *slog.Logger

	adminUsername    string
	adminPassword    string
	freeDailyQueries int
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, revoker TokenRevoker,
	audit AuditLogger, mail MailPublisher, log *slog.Logger,
	adminUsername, adminPassword string, freeDailyQueries int) *AuthService {
	return &AuthService{
		users:            users,
		jwtMaker:         jwtMaker,
		revoker:          revoker,
		audit:            audit,
		mail:             mail,
		log:              log,
		adminUsername:    adminUsername,
		adminPassword:    adminPassword,
		freeDailyQueries: freeDailyQueries,
	}
}

// Register создает нового пользователя и сразу выпускает токен сессии.
// Занятость email и username проверяется отдельно, чтобы вернуть
// точную причину конфликта.
func (s *AuthService) Register(ctx context.Context, email, username, name, rawPassword string) (*models.User, string, error) {
	const op = "auth.Register"

	emailTaken, usernameTaken, err := s.users.UserExists(ctx, email, username)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if emailTaken {
		return nil, "", fmt.Errorf("%w: email already registered", errs.ErrConflict)
	}
	if usernameTaken {
		return nil, "", fmt.Errorf("%w: username already taken", errs.ErrConflict)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: hashed,
		Avatar:       fmt.Sprintf(avatarURLTemplate, username),
		Subscription: models.SubscriptionState{
			DailyQueries:       s.freeDailyQueries,
			SubscriptionStatus: "free",
		},
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(created.UID, created.Username, false)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return created, token, nil
}

// Login проверяет пароль пользователя и выпускает новый токен с новым jti.
// Несуществующий email и неверный пароль дают один и тот же ответ.
// Истёкшая временная блокировка снимается прямо при входе.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)
	}

	now := time.Now()
	if user.Suspension.IsSuspended && !user.Suspension.Active(now) {
		if err := s.users.UpdateSuspension(ctx, user.UID, models.SuspensionState{}); err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		user.Suspension = models.SuspensionState{}
	}
	if user.Suspension.Active(now) {
		return nil, "", suspendedError(user.Suspension)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// AdminLogin сверяет учётные данные администратора из конфигурации
// развертывания. И успех, и неудача фиксируются в журнале вместе с
// адресом, с которого пришла попытка входа.
func (s *AuthService) AdminLogin(ctx context.Context, username, rawPassword, origin string) (string, error) {
	const op = "auth.AdminLogin"

	if username != s.adminUsername || rawPassword != s.adminPassword {
		if err := s.audit.CreateAdminLog(ctx, models.AdminLogEntry{
			ActorUID: username,
			Action:   "admin_login_failed",
			Origin:   origin,
		}); err != nil {
			s.log.Error("failed to record failed admin login", sl.Err(err))
		}
		return "", fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)
	}

	token, err := s.jwtMaker.GenerateToken("admin", username, true)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.audit.CreateAdminLog(ctx, models.AdminLogEntry{
		ActorUID: "admin",
		Action:   "admin_login",
		Origin:   origin,
	}); err != nil {
		s.log.Error("failed to record admin login", sl.Err(err))
	}
	return token, nil
}

// Logout отзывает конкретный выпуск токена по jti. Остальные токены
// пользователя продолжают действовать.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.CustomClaims) error {
	const op = "auth.Logout"
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResolveSession проверяет токен и возвращает свежее состояние пользователя.
// Блокировка и отзыв проверяются на каждом запросе, а не при выпуске токена.
func (s *AuthService) ResolveSession(ctx context.Context, tokenStr string) (*models.User, *jwt.CustomClaims, error) {
	const op = "auth.ResolveSession"

	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: token revoked", errs.ErrUnauthorized)
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: user not found", errs.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Suspension.Active(time.Now()) {
		return nil, nil, suspendedError(user.Suspension)
	}
	return user, claims, nil
}

// ResolveAdminSession проверяет токен администратора. Учётная запись
// администратора не хранится в таблице пользователей.
func (s *AuthService) ResolveAdminSession(ctx context.Context, tokenStr string) (*jwt.CustomClaims, error) {
	const op = "auth.ResolveAdminSession"

	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", errs.ErrUnauthorized)
	}
	if !claims.IsAdmin {
		return nil, fmt.Errorf("%w: admin access required", errs.ErrForbidden)
	}
	return claims, nil
}

// PasswordResetJob почтовое задание для воркера отправки писем.
type PasswordResetJob struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// RequestPasswordReset выпускает одноразовый токен сброса пароля и ставит
// письмо в очередь. Для неизвестного email ответ неотличим от успешного,
// чтобы не раскрывать, зарегистрирован ли адрес.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token := uuid.NewString()
	expires := time.Now().Add(resetTokenTTL)
	if err := s.users.SetPasswordResetToken(ctx, user.UID, hashResetToken(token), expires); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mail.PublishMailJob(rabbitmq.QueuePasswordReset, PasswordResetJob{
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	}); err != nil {
		s.log.Error("failed to enqueue password reset mail", sl.Err(err))
	}
	return nil
}

// ConfirmPasswordReset меняет пароль по действующему токену сброса.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	const op = "auth.ConfirmPasswordReset"

	user, err := s.users.GetUserByResetToken(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: invalid or expired reset token", errs.ErrUnauthorized)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, user.UID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// suspendedError собирает ответ о блокировке: бессрочной или до момента.
func suspendedError(state models.SuspensionState) error {
	if state.Until == nil {
		return fmt.Errorf("%w: account suspended: %s", errs.ErrForbidden, state.Reason)
	}
	return fmt.Errorf("%w: account suspended until %s: %s",
		errs.ErrForbidden, state.Until.UTC().Format(time.RFC3339), state.Reason)
}

// В базе хранится только хэш токена сброса, сам токен уходит в письмо.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
