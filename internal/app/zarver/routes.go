package zarver

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/zarverapp/zarver/internal/config"
	"github.com/zarverapp/zarver/internal/http/handlers/admin/dashboard"
	"github.com/zarverapp/zarver/internal/http/handlers/admin/exportusers"
	adminlogs "github.com/zarverapp/zarver/internal/http/handlers/admin/logs"
	"github.com/zarverapp/zarver/internal/http/handlers/admin/suspend"
	"github.com/zarverapp/zarver/internal/http/handlers/admin/unsuspend"
	"github.com/zarverapp/zarver/internal/http/handlers/admin/userread"
	adminusers "github.com/zarverapp/zarver/internal/http/handlers/admin/users"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/adminlogin"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/login"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/logout"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/me"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/register"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/resetconfirm"
	"github.com/zarverapp/zarver/internal/http/handlers/auth/resetrequest"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/commentadd"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/commentdelete"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/commentlist"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/create"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/history"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/implement"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/public"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/roll"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/vote"
	"github.com/zarverapp/zarver/internal/http/handlers/decision/votestats"
	"github.com/zarverapp/zarver/internal/http/handlers/health"
	"github.com/zarverapp/zarver/internal/http/handlers/message/chat"
	"github.com/zarverapp/zarver/internal/http/handlers/message/conversations"
	"github.com/zarverapp/zarver/internal/http/handlers/message/send"
	notificationlist "github.com/zarverapp/zarver/internal/http/handlers/notification/list"
	"github.com/zarverapp/zarver/internal/http/handlers/notification/markread"
	"github.com/zarverapp/zarver/internal/http/handlers/notification/unreadcount"
	"github.com/zarverapp/zarver/internal/http/handlers/payment/paymentcreate"
	"github.com/zarverapp/zarver/internal/http/handlers/payment/paymentlist"
	"github.com/zarverapp/zarver/internal/http/handlers/payment/paymentwebhook"
	"github.com/zarverapp/zarver/internal/http/handlers/user/follow"
	"github.com/zarverapp/zarver/internal/http/handlers/user/followlist"
	"github.com/zarverapp/zarver/internal/http/handlers/user/search"
	"github.com/zarverapp/zarver/internal/http/handlers/user/unfollow"
	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/realtime"
	adminservice "github.com/zarverapp/zarver/internal/services/admin"
	authservice "github.com/zarverapp/zarver/internal/services/auth"
	decisionservice "github.com/zarverapp/zarver/internal/services/decision"
	messageservice "github.com/zarverapp/zarver/internal/services/message"
	notificationservice "github.com/zarverapp/zarver/internal/services/notification"
	paymentservice "github.com/zarverapp/zarver/internal/services/payment"
	socialservice "github.com/zarverapp/zarver/internal/services/social"
	"github.com/zarverapp/zarver/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger,
	db *repository.Storage, hub *realtime.Hub,
	authService *authservice.AuthService,
	decisionService *decisionservice.Service,
	socialService *socialservice.Service,
	messageService *messageservice.Service,
	notificationService *notificationservice.Service,
	adminService *adminservice.Service,
	payService *paymentservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/admin/login", adminlogin.New(logger, authService).ServeHTTP)
		r.Post("/auth/password-reset/request", resetrequest.New(logger, authService).ServeHTTP)
		r.Post("/auth/password-reset/confirm", resetconfirm.New(logger, authService).ServeHTTP)
		r.Get("/decisions/public", public.New(logger, decisionService).ServeHTTP)
		r.Get("/decisions/{id}/comments", commentlist.New(logger, decisionService).ServeHTTP)
		r.Get("/decisions/{id}/votes", votestats.New(logger, decisionService).ServeHTTP)
		r.Get("/users/{id}/followers", followlist.New(logger, socialService, followlist.ModeFollowers).ServeHTTP)
		r.Get("/users/{id}/following", followlist.New(logger, socialService, followlist.ModeFollowing).ServeHTTP)

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", paymentwebhook.New(logger, payService, cfg.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst))
			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)
			r.Get("/auth/me", me.New(logger).ServeHTTP)

			r.Post("/decisions/create", create.New(logger, decisionService).ServeHTTP)
			r.Post("/decisions/{id}/roll", roll.New(logger, decisionService).ServeHTTP)
			r.Post("/decisions/{id}/implement", implement.New(logger, decisionService).ServeHTTP)
			r.Get("/decisions/history", history.New(logger, decisionService).ServeHTTP)
			r.Post("/decisions/{id}/comments", commentadd.New(logger, decisionService).ServeHTTP)
			r.Delete("/comments/{id}", commentdelete.New(logger, decisionService, adminService).ServeHTTP)
			r.Post("/decisions/{id}/vote", vote.New(logger, decisionService).ServeHTTP)

			r.Post("/users/follow", follow.New(logger, socialService).ServeHTTP)
			r.Delete("/users/unfollow/{id}", unfollow.New(logger, socialService).ServeHTTP)
			r.Get("/users/search", search.New(logger, socialService).ServeHTTP)

			r.Post("/messages/send", send.New(logger, messageService).ServeHTTP)
			r.Get("/messages/conversations", conversations.New(logger, messageService).ServeHTTP)
			r.Get("/messages/conversation/{id}", chat.New(logger, messageService).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, notificationService).ServeHTTP)
			r.Get("/notifications/unread-count", unreadcount.New(logger, notificationService).ServeHTTP)
			r.Put("/notifications/{id}/read", markread.New(logger, notificationService).ServeHTTP)

			r.Post("/payment", paymentcreate.New(logger, payService).ServeHTTP)
			r.Get("/payments/list", paymentlist.New(logger, payService).ServeHTTP)
		})

		// Группа административного контура
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AdminMiddleware(authService, logger))
			r.Get("/admin/dashboard", dashboard.New(logger, adminService).ServeHTTP)
			r.Get("/admin/users", adminusers.New(logger, adminService).ServeHTTP)
			r.Get("/admin/users/{id}", userread.New(logger, adminService).ServeHTTP)
			r.Post("/admin/users/{id}/suspend", suspend.New(logger, adminService).ServeHTTP)
			r.Post("/admin/users/{id}/unsuspend", unsuspend.New(logger, adminService).ServeHTTP)
			r.Get("/admin/logs", adminlogs.New(logger, adminService).ServeHTTP)
			r.Get("/admin/export/users", exportusers.New(logger, adminService).ServeHTTP)
		})
	})

	r.Get("/ws", realtime.NewHandler(logger, hub, authService).ServeHTTP)
	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
