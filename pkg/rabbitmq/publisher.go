package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Grupo-MACC/Order/pkg/logger"
	"github.com/Grupo-MACC/Order/pkg/metrics"
)

// maxPublishRetries — ограничение повторов публикации при сбое шины.
// После исчерпания ошибка поднимается наверх, и доставка исходного
// события повторится через nack.
const maxPublishRetries = 3

// Publisher публикует JSON сообщения в один exchange.
// Потокобезопасен: канал защищён мьютексом, публикации сериализуются.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создаёт publisher для exchange.
func NewPublisher(client *Client, exchange string) (*Publisher, error) {
	ch, err := client.Channel()
	if err != nil {
		return nil, err
	}

	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Publish сериализует payload в JSON и публикует его persistent
// сообщением с указанным routing key. При сбое повторяет с
// экспоненциальной задержкой, максимум maxPublishRetries попыток.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сообщения %s: %w", routingKey, err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.New().String(),
		Timestamp:     time.Now(),
		CorrelationId: logger.CorrelationIDFromContext(ctx),
		Body:          body,
	}

	var lastErr error
	for attempt := 0; attempt < maxPublishRetries; attempt++ {
		if attempt > 0 {
			// Экспоненциальная задержка: 100ms, 200ms, 400ms...
			backoff := time.Duration(100*(1<<attempt)) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		p.mu.Lock()
		lastErr = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
		p.mu.Unlock()

		if lastErr == nil {
			metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey).Inc()
			logger.FromContext(ctx).Debug().
				Str("exchange", p.exchange).
				Str("routing_key", routingKey).
				Str("message_id", msg.MessageId).
				Msg("Сообщение опубликовано")
			return nil
		}

		logger.FromContext(ctx).Warn().
			Err(lastErr).
			Str("exchange", p.exchange).
			Str("routing_key", routingKey).
			Int("attempt", attempt+1).
			Msg("Ошибка публикации, повтор")
	}

	return fmt.Errorf("ошибка публикации %s в %s: %w", routingKey, p.exchange, lastErr)
}

// Close закрывает канал publisher'а.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
