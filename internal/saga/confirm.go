package saga

import (
	"context"
	"fmt"
	"sync"

	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/pkg/logger"
	"github.com/Grupo-MACC/Order/pkg/metrics"
)

// Confirmation — in-memory экземпляр саги подтверждения одного заказа.
// Ключ корреляции — order_id. Держит снапшот заказа, чтобы переиздавать
// команды без похода в БД на каждом событии.
//
// События одного экземпляра обрабатываются строго последовательно:
// все переходы выполняются под мьютексом экземпляра.
type Confirmation struct {
	mu       sync.Mutex
	order    *domain.Order
	state    domain.CreationStatus
	finished bool

	orders   OrderStore
	pub      CommandPublisher
	audit    Auditor
	onFinish func(orderID int64)
}

// NewConfirmation создаёт сагу в состоянии Pending.
// onFinish вызывается один раз при входе в терминальное состояние.
func NewConfirmation(order *domain.Order, orders OrderStore, pub CommandPublisher, audit Auditor, onFinish func(orderID int64)) *Confirmation {
	return &Confirmation{
		order:    order,
		state:    domain.CreationPending,
		orders:   orders,
		pub:      pub,
		audit:    audit,
		onFinish: onFinish,
	}
}

// State возвращает текущее состояние саги.
func (s *Confirmation) State() domain.CreationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Finished сообщает, достигла ли сага терминального состояния.
func (s *Confirmation) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Start выполняет входной эффект состояния Pending: команду оплаты.
// Заказ уже сохранён со статусом Pending, поэтому здесь только публикация.
func (s *Confirmation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pub.PublishPayCommand(ctx, s.order); err != nil {
		return fmt.Errorf("ошибка публикации команды оплаты: %w", err)
	}

	s.audit.Info(ctx, "Сага подтверждения запущена", map[string]any{
		"order_id": s.order.ID,
	})

	return nil
}

// Handle обрабатывает событие саги.
//
// Семантика ошибок: ErrSagaFinished и ErrUnexpectedEvent — drop
// (повтор бессмыслен); любая другая ошибка оставляет состояние
// неизменным, и событие будет доставлено повторно через nack.
func (s *Confirmation) Handle(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return ErrSagaFinished
	}

	next, ok := confirmTransitions[s.state][ev.Type]
	if !ok {
		return fmt.Errorf("%w: состояние %s, событие %s", ErrUnexpectedEvent, s.state, ev.Type)
	}

	if err := s.enter(ctx, next); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int64("order_id", s.order.ID).
		Str("from", string(s.state)).
		Str("to", string(next)).
		Str("event", string(ev.Type)).
		Msg("Переход саги подтверждения")

	metrics.SagaTransitionsTotal.WithLabelValues("confirmation", string(next)).Inc()

	s.state = next
	s.order.CreationStatus = next

	if confirmTerminal(next) {
		s.finished = true
		s.audit.Info(ctx, "Сага подтверждения завершена", map[string]any{
			"order_id": s.order.ID,
			"state":    string(next),
		})
		if s.onFinish != nil {
			s.onFinish(s.order.ID)
		}
	}

	return nil
}

// enter выполняет входные эффекты нового состояния.
// Порядок строго persist → publish: при падении между ними повторная
// доставка увидит новый статус и переиздаст команду (получатели
// идемпотентны по order_id).
func (s *Confirmation) enter(ctx context.Context, next domain.CreationStatus) error {
	switch next {
	case domain.CreationPaid:
		if _, err := s.orders.UpdateCreationStatus(ctx, s.order.ID, domain.CreationPaid); err != nil {
			return fmt.Errorf("ошибка сохранения статуса Paid: %w", err)
		}
		if err := s.pub.PublishCheckDelivery(ctx, s.order); err != nil {
			return fmt.Errorf("ошибка публикации проверки доставки: %w", err)
		}

	case domain.CreationConfirmed:
		if _, err := s.orders.UpdateCreationStatus(ctx, s.order.ID, domain.CreationConfirmed); err != nil {
			return fmt.Errorf("ошибка сохранения статуса Confirmed: %w", err)
		}
		if _, err := s.orders.UpdateFabricationStatus(ctx, s.order.ID, domain.FabricationRequested); err != nil {
			return fmt.Errorf("ошибка запроса производства: %w", err)
		}
		s.order.FabricationStatus = domain.FabricationRequested
		if err := s.pub.PublishFabricationOrder(ctx, s.order); err != nil {
			return fmt.Errorf("ошибка публикации команды производства: %w", err)
		}

	case domain.CreationNoMoney:
		if _, err := s.orders.UpdateCreationStatus(ctx, s.order.ID, domain.CreationNoMoney); err != nil {
			return fmt.Errorf("ошибка сохранения статуса NoMoney: %w", err)
		}

	case domain.CreationNotDeliverable:
		if _, err := s.orders.UpdateCreationStatus(ctx, s.order.ID, domain.CreationNotDeliverable); err != nil {
			return fmt.Errorf("ошибка сохранения статуса NotDeliverable: %w", err)
		}
		if err := s.pub.PublishReturnMoney(ctx, s.order); err != nil {
			return fmt.Errorf("ошибка публикации возврата денег: %w", err)
		}

	case domain.CreationReturned:
		if _, err := s.orders.UpdateCreationStatus(ctx, s.order.ID, domain.CreationReturned); err != nil {
			return fmt.Errorf("ошибка сохранения статуса Returned: %w", err)
		}
	}

	return nil
}
