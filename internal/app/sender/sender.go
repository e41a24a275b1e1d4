// Package sender собирает воркер отправки писем: подключение к очередям
// и потребители почтовых заданий.
package sender

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/zarverapp/zarver/internal/config"
	"github.com/zarverapp/zarver/internal/lib/rabbitmq"
	"github.com/zarverapp/zarver/internal/lib/smtp"
	senderservice "github.com/zarverapp/zarver/internal/services/sender"
)

// App инкапсулирует зависимости воркера отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает воркер: подключается к RabbitMQ и готовит SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitConnection, 5, 2*time.Second)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMailQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей очередей и ждёт отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.Consume(ctx, a.ch, rabbitmq.QueuePasswordReset, a.logger, a.senderService.SendPasswordReset)
	if err != nil {
		a.logger.Error("failed to start password reset consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.Consume(ctx, a.ch, rabbitmq.QueueSuspension, a.logger, a.senderService.SendSuspensionNotice)
	if err != nil {
		a.logger.Error("failed to start suspension consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
