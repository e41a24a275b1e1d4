package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// MailExchange имя exchange для почтовых заданий.
const MailExchange = "mail"

// QueueConfig связка очереди и ключа маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очереди почтовых заданий.
const (
	QueuePasswordReset = "mail.password_reset"
	QueueSuspension    = "mail.suspension"
)

// GetMailQueues возвращает очереди, которые обслуживает воркер отправки писем.
func GetMailQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueuePasswordReset, RoutingKey: "password_reset"},
		{QueueName: QueueSuspension, RoutingKey: "suspension"},
	}
}

// SetupChannel открывает канал, объявляет exchange и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		MailExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, MailExchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return ch, nil
}
