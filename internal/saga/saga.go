// Package saga реализует две распределённые саги Order Service.
//
// Сага подтверждения ведёт заказ от создания до запуска производства:
//  1. Pending — команда оплаты отправлена в Payment Service
//  2. Paid — оплата прошла, проверяем возможность доставки
//  3. Confirmed — доставка возможна, производство запрошено у Warehouse
//
// Компенсации: Pending → NoMoney при отказе оплаты;
// Paid → NotDeliverable → Returned при невозможной доставке.
//
// Сага отмены компенсирует уже запущенное производство:
// Canceling → Refunding → Canceled, с фолбэком CancelPendingRefund
// если возврат денег не прошёл.
package saga

import (
	"context"
	"errors"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// =============================================================================
// События саг
// =============================================================================

// EventType — внутреннее событие саги. Ingress переводит статусы из
// сообщений шины в эти события; «сырые» статусы внутрь саги не попадают.
type EventType string

const (
	// События саги подтверждения.
	EventPaymentAccepted     EventType = "payment_accepted"
	EventPaymentRejected     EventType = "payment_rejected"
	EventDeliveryPossible    EventType = "delivery_possible"
	EventDeliveryNotPossible EventType = "delivery_not_possible"
	EventMoneyReturned       EventType = "money_returned"

	// События саги отмены.
	EventFabricationCanceled EventType = "fabrication_canceled"
	EventRefunded            EventType = "refunded"
	EventRefundFailed        EventType = "refund_failed"
)

// Event — событие с опциональной причиной (для refund_failed).
type Event struct {
	Type   EventType
	Reason string
}

// =============================================================================
// Ошибки
// =============================================================================

var (
	// ErrSagaFinished — событие пришло после терминального состояния.
	// Ingress логирует и подтверждает сообщение без повтора.
	ErrSagaFinished = errors.New("сага уже завершена")

	// ErrUnexpectedEvent — событие недопустимо в текущем состоянии.
	// Также обрабатывается как drop: повтор доставки ничего не изменит.
	ErrUnexpectedEvent = errors.New("недопустимое событие для текущего состояния саги")

	// ErrSagaExists — сага с таким ключом уже зарегистрирована.
	ErrSagaExists = errors.New("сага уже запущена")
)

// IsDrop сообщает, что ошибку обработки события нужно не повторять,
// а подтвердить сообщение и забыть (replay после завершения, чужое событие).
func IsDrop(err error) bool {
	return errors.Is(err, ErrSagaFinished) || errors.Is(err, ErrUnexpectedEvent)
}

// =============================================================================
// Зависимости саг
// =============================================================================

// OrderStore — операции персистентности заказа, нужные сагам.
// Реализуется repository.OrderRepository.
type OrderStore interface {
	UpdateCreationStatus(ctx context.Context, id int64, status domain.CreationStatus) (*domain.Order, error)
	UpdateFabricationStatus(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, error)
}

// CancelSagaStore — персистентность записи саги отмены.
type CancelSagaStore interface {
	UpdateCancelSaga(ctx context.Context, sagaID string, state domain.CancelSagaState, reason string) error
}

// CommandPublisher — исходящие команды саг.
// Реализуется broker.OrderPublisher.
type CommandPublisher interface {
	PublishPayCommand(ctx context.Context, order *domain.Order) error
	PublishCheckDelivery(ctx context.Context, order *domain.Order) error
	PublishReturnMoney(ctx context.Context, order *domain.Order) error
	PublishFabricationOrder(ctx context.Context, order *domain.Order) error
	PublishCancelFabrication(ctx context.Context, orderID int64, sagaID string) error
	PublishRefund(ctx context.Context, orderID, userID int64, sagaID string) error
}

// Auditor — best-effort audit записи в exchange logs.
// Реализуется broker.AuditLogger.
type Auditor interface {
	Info(ctx context.Context, message string, fields map[string]any)
	Error(ctx context.Context, message string, fields map[string]any)
}

// =============================================================================
// Таблицы переходов
// =============================================================================

// confirmTransitions — допустимые переходы саги подтверждения:
// текущее состояние → событие → следующее состояние.
var confirmTransitions = map[domain.CreationStatus]map[EventType]domain.CreationStatus{
	domain.CreationPending: {
		EventPaymentAccepted: domain.CreationPaid,
		EventPaymentRejected: domain.CreationNoMoney,
	},
	domain.CreationPaid: {
		EventDeliveryPossible:    domain.CreationConfirmed,
		EventDeliveryNotPossible: domain.CreationNotDeliverable,
	},
	domain.CreationNotDeliverable: {
		EventMoneyReturned: domain.CreationReturned,
	},
}

// confirmTerminal — терминальные состояния саги подтверждения.
// NotDeliverable не терминально: ждёт подтверждения возврата денег.
func confirmTerminal(s domain.CreationStatus) bool {
	switch s {
	case domain.CreationConfirmed, domain.CreationNoMoney, domain.CreationReturned:
		return true
	}
	return false
}

// cancelTransitions — допустимые переходы саги отмены.
var cancelTransitions = map[domain.CancelSagaState]map[EventType]domain.CancelSagaState{
	domain.CancelStateCanceling: {
		EventFabricationCanceled: domain.CancelStateRefunding,
	},
	domain.CancelStateRefunding: {
		EventRefunded:     domain.CancelStateCanceled,
		EventRefundFailed: domain.CancelStateCancelPendingRefund,
	},
}
