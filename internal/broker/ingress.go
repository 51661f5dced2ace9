package broker

import (
	"context"
	"sync"

	"github.com/Grupo-MACC/Order/internal/config"
	"github.com/Grupo-MACC/Order/internal/saga"
	"github.com/Grupo-MACC/Order/internal/service"
	"github.com/Grupo-MACC/Order/pkg/logger"
	"github.com/Grupo-MACC/Order/pkg/rabbitmq"
)

// KeyManager — реакция на сигналы готовности Auth Service.
// Реализуется auth.Fetcher.
type KeyManager interface {
	// HandleAuthRunning забирает и кэширует публичный ключ.
	HandleAuthRunning(ctx context.Context) error

	// HandleAuthStopped помечает ключ недействительным.
	HandleAuthStopped(ctx context.Context)
}

// DedupStore — best-effort отметки обработанных сообщений.
// Реализуется dedup.Store (Redis).
type DedupStore interface {
	// Seen сообщает, было ли сообщение уже успешно обработано.
	Seen(ctx context.Context, messageID string) (bool, error)

	// MarkProcessed ставит отметку после успешной обработки.
	// Возвращает true, если отметка поставлена впервые.
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
}

// Ingress — все consumer'ы Order Service. Каждая очередь — отдельная
// долгоживущая горутина с ack-on-success семантикой.
type Ingress struct {
	client   *rabbitmq.Client
	cfg      config.RabbitMQConfig
	registry *saga.Registry
	svc      service.OrderService
	keys     KeyManager
	dedup    DedupStore
}

// NewIngress создаёт ingress слой сервиса.
func NewIngress(
	client *rabbitmq.Client,
	cfg config.RabbitMQConfig,
	registry *saga.Registry,
	svc service.OrderService,
	keys KeyManager,
	dedup DedupStore,
) *Ingress {
	return &Ingress{
		client:   client,
		cfg:      cfg,
		registry: registry,
		svc:      svc,
		keys:     keys,
		dedup:    dedup,
	}
}

// Run запускает все consumer'ы и блокируется до отмены контекста.
// Начатая обработка сообщения завершается (ack или nack) до выхода.
func (i *Ingress) Run(ctx context.Context) error {
	specs := []struct {
		spec    rabbitmq.QueueSpec
		handler rabbitmq.MessageHandler
	}{
		// Ответы воркеров саги подтверждения (exchange saga).
		{
			rabbitmq.QueueSpec{
				Name:     QueuePaymentResult,
				Exchange: i.cfg.SagaExchange,
				Bindings: []string{KeyPaymentResult},
			},
			i.handlePaymentResult,
		},
		{
			rabbitmq.QueueSpec{
				Name:     QueueDeliveryResult,
				Exchange: i.cfg.SagaExchange,
				Bindings: []string{KeyDeliveryResult},
			},
			i.handleDeliveryResult,
		},
		{
			rabbitmq.QueueSpec{
				Name:     QueueMoneyReturned,
				Exchange: i.cfg.SagaExchange,
				Bindings: []string{KeyMoneyReturned},
			},
			i.handleMoneyReturned,
		},

		// Ответы воркеров саги отмены (exchange saga).
		{
			rabbitmq.QueueSpec{
				Name:     QueueFabricationCanceled,
				Exchange: i.cfg.SagaExchange,
				Bindings: []string{KeyFabricationCanceled},
			},
			i.handleFabricationCanceled,
		},
		{
			rabbitmq.QueueSpec{
				Name:     QueueRefundResult,
				Exchange: i.cfg.SagaExchange,
				Bindings: []string{KeyRefundResult, KeyRefundedLegacy, KeyRefundFailedLegacy},
			},
			i.handleRefundResult,
		},

		// События платформы (exchange events).
		{
			rabbitmq.QueueSpec{
				Name:     QueueWarehouseEvents,
				Exchange: i.cfg.EventsExchange,
				Bindings: []string{i.cfg.WarehouseEventsBinding},
			},
			i.handleWarehouseEvent,
		},
		{
			rabbitmq.QueueSpec{
				Name:     QueueDeliveryStatus,
				Exchange: i.cfg.EventsExchange,
				Bindings: []string{KeyDeliveryFinished, KeyDeliveryReady},
			},
			i.handleDeliveryStatus,
		},
		{
			rabbitmq.QueueSpec{
				Name:     QueuePaymentLegacy,
				Exchange: i.cfg.EventsExchange,
				Bindings: []string{KeyPaymentPaid, KeyPaymentFailed},
			},
			i.handlePaymentLegacy,
		},
		{
			rabbitmq.QueueSpec{
				Name:     QueueAuthStatus,
				Exchange: i.cfg.EventsExchange,
				Bindings: []string{KeyAuthRunning, KeyAuthNotRunning},
			},
			i.handleAuthStatus,
		},
	}

	var wg sync.WaitGroup
	for _, s := range specs {
		consumer := rabbitmq.NewConsumer(i.client, s.spec)
		handler := s.handler

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, handler); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("Consumer завершился с ошибкой")
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}
