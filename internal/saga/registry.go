package saga

import (
	"context"
	"sync"

	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// Registry — in-memory реестр активных саг.
// Саги подтверждения индексируются по order_id, саги отмены — по saga_id.
//
// Реестр владеет жизненным циклом экземпляров: создание, поиск по событию,
// автоматическое удаление при входе в терминальное состояние.
// Все мутации карт защищены мьютексом; переходы внутри экземпляра
// сериализует его собственный мьютекс.
type Registry struct {
	mu            sync.Mutex
	confirmations map[int64]*Confirmation
	cancellations map[string]*Cancellation

	orders OrderStore
	sagas  CancelSagaStore
	pub    CommandPublisher
	audit  Auditor
}

// NewRegistry создаёт пустой реестр саг.
func NewRegistry(orders OrderStore, sagas CancelSagaStore, pub CommandPublisher, audit Auditor) *Registry {
	return &Registry{
		confirmations: make(map[int64]*Confirmation),
		cancellations: make(map[string]*Cancellation),
		orders:        orders,
		sagas:         sagas,
		pub:           pub,
		audit:         audit,
	}
}

// StartConfirmation регистрирует и запускает сагу подтверждения заказа.
// Повторный запуск для уже активного order_id — no-op: логируется
// предупреждение, ошибки нет.
func (r *Registry) StartConfirmation(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	if _, exists := r.confirmations[order.ID]; exists {
		r.mu.Unlock()
		logger.FromContext(ctx).Warn().
			Int64("order_id", order.ID).
			Msg("Сага подтверждения уже активна, повторный запуск пропущен")
		return nil
	}

	inst := NewConfirmation(order, r.orders, r.pub, r.audit, r.removeConfirmation)
	r.confirmations[order.ID] = inst
	r.mu.Unlock()

	if err := inst.Start(ctx); err != nil {
		// Команда оплаты не ушла — снимаем регистрацию, создание заказа
		// вернёт ошибку, и клиент сможет повторить запрос.
		r.removeConfirmation(order.ID)
		return err
	}

	return nil
}

// Confirmation возвращает активную сагу подтверждения по order_id.
func (r *Registry) Confirmation(orderID int64) (*Confirmation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.confirmations[orderID]
	return inst, ok
}

// removeConfirmation снимает регистрацию саги подтверждения.
// Вызывается экземпляром при входе в терминальное состояние.
func (r *Registry) removeConfirmation(orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.confirmations, orderID)
}

// StartCancellation регистрирует и запускает сагу отмены.
// Повторный запуск для активного saga_id — no-op.
func (r *Registry) StartCancellation(ctx context.Context, sagaID string, order *domain.Order) error {
	r.mu.Lock()
	if _, exists := r.cancellations[sagaID]; exists {
		r.mu.Unlock()
		logger.FromContext(ctx).Warn().
			Str("saga_id", sagaID).
			Msg("Сага отмены уже активна, повторный запуск пропущен")
		return nil
	}

	inst := NewCancellation(sagaID, order, r.orders, r.sagas, r.pub, r.audit, r.removeCancellation)
	r.cancellations[sagaID] = inst
	r.mu.Unlock()

	if err := inst.Start(ctx); err != nil {
		r.removeCancellation(sagaID)
		return err
	}

	return nil
}

// Cancellation возвращает активную сагу отмены по saga_id.
func (r *Registry) Cancellation(sagaID string) (*Cancellation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.cancellations[sagaID]
	return inst, ok
}

// removeCancellation снимает регистрацию саги отмены.
func (r *Registry) removeCancellation(sagaID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancellations, sagaID)
}

// ActiveSagas возвращает число активных саг (для метрик и отладки).
func (r *Registry) ActiveSagas() (confirmations, cancellations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.confirmations), len(r.cancellations)
}
