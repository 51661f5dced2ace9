package saga

import (
	"context"
	"fmt"
	"sync"

	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/pkg/logger"
	"github.com/Grupo-MACC/Order/pkg/metrics"
)

// Cancellation — in-memory экземпляр саги отмены заказа.
// Ключ корреляции — saga_id (UUID, выдан при допуске отмены).
//
// В отличие от саги подтверждения, состояние дублируется в БД
// (таблица cancel_saga): отмена должна быть прослеживаема и после рестарта.
type Cancellation struct {
	mu        sync.Mutex
	sagaID    string
	order     *domain.Order
	state     domain.CancelSagaState
	lastError string
	finished  bool

	orders   OrderStore
	sagas    CancelSagaStore
	pub      CommandPublisher
	audit    Auditor
	onFinish func(sagaID string)
}

// NewCancellation создаёт сагу отмены в состоянии Canceling.
// Запись cancel_saga и fabrication_status=Canceling уже сохранены
// при допуске отмены.
func NewCancellation(sagaID string, order *domain.Order, orders OrderStore, sagas CancelSagaStore, pub CommandPublisher, audit Auditor, onFinish func(sagaID string)) *Cancellation {
	return &Cancellation{
		sagaID:   sagaID,
		order:    order,
		state:    domain.CancelStateCanceling,
		orders:   orders,
		sagas:    sagas,
		pub:      pub,
		audit:    audit,
		onFinish: onFinish,
	}
}

// SagaID возвращает идентификатор саги.
func (s *Cancellation) SagaID() string {
	return s.sagaID
}

// OrderID возвращает идентификатор отменяемого заказа.
func (s *Cancellation) OrderID() int64 {
	return s.order.ID
}

// State возвращает текущее состояние саги.
func (s *Cancellation) State() domain.CancelSagaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Finished сообщает, достигла ли сага терминального состояния.
func (s *Cancellation) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Start выполняет входной эффект состояния Canceling:
// команду отмены производства для Warehouse.
func (s *Cancellation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pub.PublishCancelFabrication(ctx, s.order.ID, s.sagaID); err != nil {
		return fmt.Errorf("ошибка публикации отмены производства: %w", err)
	}

	s.audit.Info(ctx, "Сага отмены запущена", map[string]any{
		"saga_id":  s.sagaID,
		"order_id": s.order.ID,
	})

	return nil
}

// Handle обрабатывает событие саги отмены.
// Семантика ошибок та же, что у Confirmation.Handle.
func (s *Cancellation) Handle(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return ErrSagaFinished
	}

	next, ok := cancelTransitions[s.state][ev.Type]
	if !ok {
		return fmt.Errorf("%w: состояние %s, событие %s", ErrUnexpectedEvent, s.state, ev.Type)
	}

	if err := s.enter(ctx, next, ev.Reason); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().
		Str("saga_id", s.sagaID).
		Int64("order_id", s.order.ID).
		Str("from", string(s.state)).
		Str("to", string(next)).
		Str("event", string(ev.Type)).
		Msg("Переход саги отмены")

	metrics.SagaTransitionsTotal.WithLabelValues("cancellation", string(next)).Inc()

	s.state = next
	if ev.Type == EventRefundFailed {
		s.lastError = ev.Reason
	}

	if next.IsTerminal() {
		s.finished = true
		s.audit.Info(ctx, "Сага отмены завершена", map[string]any{
			"saga_id":  s.sagaID,
			"order_id": s.order.ID,
			"state":    string(next),
		})
		if s.onFinish != nil {
			s.onFinish(s.sagaID)
		}
	}

	return nil
}

// enter выполняет входные эффекты нового состояния (persist → publish).
func (s *Cancellation) enter(ctx context.Context, next domain.CancelSagaState, reason string) error {
	switch next {
	case domain.CancelStateRefunding:
		if err := s.sagas.UpdateCancelSaga(ctx, s.sagaID, domain.CancelStateRefunding, ""); err != nil {
			return fmt.Errorf("ошибка сохранения состояния Refunding: %w", err)
		}
		if err := s.pub.PublishRefund(ctx, s.order.ID, s.order.ClientID, s.sagaID); err != nil {
			return fmt.Errorf("ошибка публикации команды возврата: %w", err)
		}

	case domain.CancelStateCanceled:
		if _, err := s.orders.UpdateFabricationStatus(ctx, s.order.ID, domain.FabricationCanceled); err != nil {
			return fmt.Errorf("ошибка сохранения статуса Canceled: %w", err)
		}
		if err := s.sagas.UpdateCancelSaga(ctx, s.sagaID, domain.CancelStateCanceled, ""); err != nil {
			return fmt.Errorf("ошибка сохранения состояния Canceled: %w", err)
		}

	case domain.CancelStateCancelPendingRefund:
		// Производство уже отменено и не возобновляется даже при сбое
		// возврата. Деньги возвращаются вручную вне системы.
		if _, err := s.orders.UpdateFabricationStatus(ctx, s.order.ID, domain.FabricationCancelPendingRefund); err != nil {
			return fmt.Errorf("ошибка сохранения статуса CancelPendingRefund: %w", err)
		}
		if err := s.sagas.UpdateCancelSaga(ctx, s.sagaID, domain.CancelStateCancelPendingRefund, reason); err != nil {
			return fmt.Errorf("ошибка сохранения состояния CancelPendingRefund: %w", err)
		}
	}

	return nil
}
