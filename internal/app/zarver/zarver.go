// Package zarver собирает API-процесс: хранилище, кеш, очередь,
// внешние клиенты, сервисы и HTTP-сервер.
package zarver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/zarverapp/zarver/internal/cache"
	"github.com/zarverapp/zarver/internal/config"
	"github.com/zarverapp/zarver/internal/generator"
	"github.com/zarverapp/zarver/internal/lib/jwt"
	"github.com/zarverapp/zarver/internal/lib/rabbitmq"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/migrations"
	"github.com/zarverapp/zarver/internal/paymentprovider"
	"github.com/zarverapp/zarver/internal/realtime"
	adminservice "github.com/zarverapp/zarver/internal/services/admin"
	authservice "github.com/zarverapp/zarver/internal/services/auth"
	decisionservice "github.com/zarverapp/zarver/internal/services/decision"
	messageservice "github.com/zarverapp/zarver/internal/services/message"
	notificationservice "github.com/zarverapp/zarver/internal/services/notification"
	paymentservice "github.com/zarverapp/zarver/internal/services/payment"
	quotaservice "github.com/zarverapp/zarver/internal/services/quota"
	socialservice "github.com/zarverapp/zarver/internal/services/social"
	"github.com/zarverapp/zarver/internal/storage/repository"
)

// App инкапсулирует зависимости API-процесса.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New создает приложение: подключает базу, применяет миграции, поднимает
// кеш и очередь, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Очередь необязательна: без неё письма просто не отправляются.
	var rabbitConn *amqp.Connection
	var rabbitCh *amqp.Channel
	var publisher *rabbitmq.Publisher
	if cfg.RabbitConnection != "" {
		rabbitConn, err = rabbitmq.Connect(cfg.RabbitConnection, 5, 2*time.Second)
		if err != nil {
			return nil, err
		}
		rabbitCh, err = rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetMailQueues())
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(rabbitCh)
	} else {
		logger.Warn("rabbit connection is not configured, mail jobs are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	genClient := generator.NewClient(cfg.GeneratorURL, cfg.GeneratorAPIKey, cfg.GeneratorTimeout)
	providerClient := paymentprovider.NewClient(cfg.ShopID, cfg.SecretKey)
	hub := realtime.NewHub(logger)

	authService := authservice.NewAuthService(db, jwtMaker, cacheRedis, db, publisher, logger,
		cfg.AdminUsername, cfg.AdminPassword, cfg.FreeDailyQueries)
	quotaService := quotaservice.NewService(db)
	notificationService := notificationservice.NewService(db, hub, logger)
	decisionService := decisionservice.NewService(db, db, quotaService, genClient, cacheRedis,
		cfg.Policy, logger)
	socialService := socialservice.NewService(db, db, notificationService, logger)
	messageService := messageservice.NewService(db, db, socialService, notificationService,
		logger, cfg.RequireMutualFollow)
	adminService := adminservice.NewService(db, db, db, publisher, logger)
	payService := paymentservice.NewService(db, db, providerClient, logger, cfg.PremiumPrice)

	router := chi.NewRouter()
	RegisterRoutes(router, cfg, logger, db, hub, authService, decisionService, socialService,
		messageService, notificationService, adminService, payService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и ждёт отмены контекста для мягкой остановки.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeQueues()
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		return err
	}
}

func (a *App) closeQueues() {
	if a.rabbitCh != nil {
		if err := a.rabbitCh.Close(); err != nil {
			a.logger.Error("failed to close rabbit channel", sl.Err(err))
		}
	}
	if a.rabbitConn != nil {
		if err := a.rabbitConn.Close(); err != nil {
			a.logger.Error("failed to close rabbit connection", sl.Err(err))
		}
	}
}
