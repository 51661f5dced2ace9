package domain

import "time"

// CancelSagaState — состояние саги отмены заказа.
type CancelSagaState string

const (
	// CancelStateCanceling — команда отмены производства отправлена Warehouse.
	CancelStateCanceling CancelSagaState = "Canceling"

	// CancelStateRefunding — производство отменено, запрошен возврат денег.
	CancelStateRefunding CancelSagaState = "Refunding"

	// CancelStateCanceled — деньги возвращены, отмена завершена.
	CancelStateCanceled CancelSagaState = "Canceled"

	// CancelStateCancelPendingRefund — производство отменено, но возврат
	// денег не прошёл. Производство не возобновляется; возврат решается
	// вручную вне системы.
	CancelStateCancelPendingRefund CancelSagaState = "CancelPendingRefund"
)

// IsTerminal возвращает true для финальных состояний саги отмены.
func (s CancelSagaState) IsTerminal() bool {
	return s == CancelStateCanceled || s == CancelStateCancelPendingRefund
}

// CancelSagaRecord — персистентная запись саги отмены.
// Создаётся при допуске отмены, обновляется на каждом переходе,
// никогда не удаляется.
type CancelSagaRecord struct {
	SagaID    string          // UUID, первичный ключ
	OrderID   int64           // Отменяемый заказ
	State     CancelSagaState // Текущее состояние
	Error     string          // Причина сбоя возврата (пусто при успехе)
	CreatedAt time.Time
	UpdatedAt time.Time
}
