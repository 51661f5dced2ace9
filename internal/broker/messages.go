package broker

// Схемы сообщений шины. Каждый routing key несёт фиксированную структуру;
// декодирование выполняется на входе, «сырые» map'ы дальше ingress не ходят.

// =============================================================================
// Исходящие команды
// =============================================================================

// PayCommand — команда оплаты (routing key pay).
type PayCommand struct {
	OrderID        int64 `json:"order_id"`
	UserID         int64 `json:"user_id"`
	NumberOfPieces int   `json:"number_of_pieces"`
}

// CheckDeliveryCommand — команда проверки доставки (check.delivery).
type CheckDeliveryCommand struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Address string `json:"address"`
}

// ReturnMoneyCommand — команда возврата денег (return.money).
type ReturnMoneyCommand struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}

// FabricationOrderCommand — команда на производство (order.created).
type FabricationOrderCommand struct {
	OrderID        int64 `json:"order_id"`
	NumberOfPieces int   `json:"number_of_pieces"`
	PiecesA        int   `json:"pieces_a"`
	PiecesB        int   `json:"pieces_b"`
}

// CancelFabricationCommand — команда отмены производства (cmd.cancel_fabrication).
type CancelFabricationCommand struct {
	OrderID int64  `json:"order_id"`
	SagaID  string `json:"saga_id"`
}

// RefundCommand — команда возврата денег при отмене (cmd.refund).
type RefundCommand struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	SagaID  string `json:"saga_id"`
}

// =============================================================================
// Исходящие события
// =============================================================================

// OrderFabricatedEvent — производство завершено (order.fabricated).
type OrderFabricatedEvent struct {
	OrderID        int64 `json:"order_id"`
	NumberOfPieces int   `json:"number_of_pieces"`
	UserID         int64 `json:"user_id"`
}

// =============================================================================
// Входящие сообщения
// =============================================================================

// PaymentResultMessage — результат оплаты (payment.result).
type PaymentResultMessage struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"` // paid | not_paid
}

// DeliveryResultMessage — результат проверки доставки (delivery.result).
type DeliveryResultMessage struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"` // deliverable | not_deliverable
}

// MoneyReturnedMessage — подтверждение возврата денег (money.returned).
type MoneyReturnedMessage struct {
	OrderID int64 `json:"order_id"`
}

// FabricationCanceledMessage — подтверждение отмены производства
// (evt.fabrication_canceled).
type FabricationCanceledMessage struct {
	SagaID  string `json:"saga_id"`
	OrderID int64  `json:"order_id"`
}

// RefundResultMessage — результат возврата денег (refund.result).
type RefundResultMessage struct {
	SagaID string `json:"saga_id"`
	Status string `json:"status"` // refunded | failed | refund_failed
	Reason string `json:"reason,omitempty"`
}

// WarehouseEventMessage — событие хода производства (warehouse.#).
// Разные ревизии Warehouse используют разные имена поля статуса.
type WarehouseEventMessage struct {
	OrderID           *int64 `json:"order_id"`
	Status            string `json:"status,omitempty"`
	FabricationStatus string `json:"fabrication_status,omitempty"`
}

// RawStatus возвращает статус из любого из двух полей.
func (m WarehouseEventMessage) RawStatus() string {
	if m.Status != "" {
		return m.Status
	}
	return m.FabricationStatus
}

// DeliveryStatusMessage — обновление статуса доставки
// (delivery.finished / delivery.ready).
type DeliveryStatusMessage struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// PaymentLegacyMessage — legacy уведомление Payment (payment.paid / payment.failed).
type PaymentLegacyMessage struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status,omitempty"`
}

// AuthStatusMessage — сигнал готовности Auth Service (auth.running / auth.not_running).
type AuthStatusMessage struct {
	Status string `json:"status"`
}
