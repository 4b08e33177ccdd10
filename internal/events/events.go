// Package events публикует доменные события bookflix в брокер сообщений.
// Ошибки публикации не должны прерывать пользовательский запрос,
// поэтому сервисы только логируют их.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookflix/internal/lib/rabbitmq"
)

// Ключи маршрутизации событий.
const (
	SubscriptionActivated = "subscription.activated"
	PaymentCompleted      = "payment.completed"
)

// Publisher публикует событие с ключом маршрутизации routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg any) error
}

// AMQPPublisher публикует события в topic-обменник RabbitMQ.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher подключается к брокеру и объявляет обменник.
func NewAMQPPublisher(url, exchange string, retries int, delay time.Duration) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"

	conn, err := rabbitmq.Connect(url, retries, delay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupExchange(conn, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish сериализует msg в JSON и публикует его.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, msg any) error {
	const op = "events.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, routingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}

// Nop ничего не публикует, используется без настроенного брокера.
type Nop struct{}

// Publish ничего не делает.
func (Nop) Publish(context.Context, string, any) error { return nil }
