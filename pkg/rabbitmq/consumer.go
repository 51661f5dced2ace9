package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Grupo-MACC/Order/pkg/logger"
	"github.com/Grupo-MACC/Order/pkg/metrics"
)

// MessageHandler — функция обработки входящего сообщения.
// Возвращает nil при успехе (сообщение подтверждается ack).
// Возвращает ошибку при временном сбое (сообщение возвращается
// в очередь через nack с requeue и будет доставлено повторно).
//
// Сообщения, которые нельзя обработать никогда (битый JSON, неизвестная
// корреляция), обработчик логирует и возвращает nil — иначе они будут
// крутиться в очереди вечно.
type MessageHandler func(ctx context.Context, d amqp.Delivery) error

// QueueSpec описывает durable очередь и её привязки к exchange.
type QueueSpec struct {
	Name     string   // Имя очереди
	Exchange string   // Exchange, к которому привязана очередь
	Bindings []string // Routing key шаблоны (поддерживают # и *)
}

// Consumer — долгоживущий потребитель одной очереди.
type Consumer struct {
	client *Client
	spec   QueueSpec
}

// NewConsumer создаёт consumer для очереди.
func NewConsumer(client *Client, spec QueueSpec) *Consumer {
	return &Consumer{client: client, spec: spec}
}

// Consume объявляет очередь, привязывает её и читает сообщения до отмены
// контекста. Блокирующий вызов — запускать в горутине.
//
// Семантика подтверждений: ack после успешной обработки, nack с requeue
// при ошибке обработчика. Начатая обработка завершается (ack или nack)
// даже при shutdown.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	ch, err := c.client.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ограничиваем число неподтверждённых сообщений на этом канале.
	if err := ch.Qos(c.client.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("ошибка установки QoS для %s: %w", c.spec.Name, err)
	}

	queue, err := ch.QueueDeclare(
		c.spec.Name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("ошибка объявления очереди %s: %w", c.spec.Name, err)
	}

	for _, binding := range c.spec.Bindings {
		if err := ch.QueueBind(queue.Name, binding, c.spec.Exchange, false, nil); err != nil {
			return fmt.Errorf("ошибка привязки %s к %s (%s): %w",
				queue.Name, c.spec.Exchange, binding, err)
		}
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",    // consumer tag генерирует брокер
		false, // auto-ack выключен: подтверждаем вручную
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("ошибка подписки на %s: %w", queue.Name, err)
	}

	log := logger.With().Str("queue", queue.Name).Logger()
	log.Info().
		Str("exchange", c.spec.Exchange).
		Strs("bindings", c.spec.Bindings).
		Msg("Consumer запущен")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Получен сигнал завершения, остановка consumer")
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("канал доставки %s закрыт", queue.Name)
			}
			c.handleDelivery(ctx, d, handler, log)
		}
	}
}

// handleDelivery выполняет ack-on-success scope для одного сообщения.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler MessageHandler, log zerolog.Logger) {
	msgCtx := logger.NewContextWithIDs(ctx, "", d.CorrelationId)

	if err := handler(msgCtx, d); err != nil {
		metrics.MessagesConsumedTotal.WithLabelValues(c.spec.Name, "error").Inc()
		log.Error().
			Err(err).
			Str("routing_key", d.RoutingKey).
			Str("message_id", d.MessageId).
			Msg("Ошибка обработки сообщения, возврат в очередь")

		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error().Err(nackErr).Msg("Ошибка nack")
		}
		return
	}

	metrics.MessagesConsumedTotal.WithLabelValues(c.spec.Name, "ok").Inc()
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error().Err(ackErr).Msg("Ошибка ack")
	}
}
