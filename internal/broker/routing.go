// Package broker содержит интеграцию Order Service с шиной сообщений:
// таблицу routing key, схемы сообщений, publisher'ы команд и событий
// и consumer'ы входящих сообщений.
package broker

// =============================================================================
// Routing keys — единая таблица констант для всех сообщений сервиса
// =============================================================================

// Исходящие команды (exchange commands).
const (
	// KeyPay — команда оплаты для Payment Service.
	KeyPay = "pay"

	// KeyCheckDelivery — команда проверки доставки для Delivery Service.
	KeyCheckDelivery = "check.delivery"

	// KeyReturnMoney — команда возврата денег для Payment Service.
	KeyReturnMoney = "return.money"

	// KeyOrderCreated — команда на производство для Warehouse.
	KeyOrderCreated = "order.created"

	// KeyCancelFabrication — команда отмены производства для Warehouse.
	KeyCancelFabrication = "cmd.cancel_fabrication"

	// KeyRefund — команда возврата денег при отмене заказа.
	KeyRefund = "cmd.refund"
)

// Исходящие события (exchange events).
const (
	// KeyOrderFabricated — производство завершено, потребляет Delivery.
	KeyOrderFabricated = "order.fabricated"
)

// Входящие ответы воркеров (exchange saga).
const (
	// KeyPaymentResult — результат оплаты: status ∈ {paid, not_paid}.
	KeyPaymentResult = "payment.result"

	// KeyDeliveryResult — результат проверки доставки:
	// status ∈ {deliverable, not_deliverable}.
	KeyDeliveryResult = "delivery.result"

	// KeyMoneyReturned — подтверждение возврата денег.
	KeyMoneyReturned = "money.returned"

	// KeyFabricationCanceled — Warehouse подтвердил отмену производства.
	KeyFabricationCanceled = "evt.fabrication_canceled"

	// KeyRefundResult — результат возврата денег при отмене.
	// Старые ревизии Payment публикуют evt_refunded / evt_refund_failed.
	KeyRefundResult       = "refund.result"
	KeyRefundedLegacy     = "evt_refunded"
	KeyRefundFailedLegacy = "evt_refund_failed"
)

// Входящие события (exchange events).
const (
	// KeyPaymentPaid / KeyPaymentFailed — legacy уведомления Payment.
	// Обновляют только creation_status, переходов саги не вызывают.
	KeyPaymentPaid   = "payment.paid"
	KeyPaymentFailed = "payment.failed"

	// KeyDeliveryFinished / KeyDeliveryReady — обновления статуса доставки.
	// Синонимы: разные ревизии Delivery публикуют разные ключи.
	KeyDeliveryFinished = "delivery.finished"
	KeyDeliveryReady    = "delivery.ready"

	// KeyAuthRunning / KeyAuthNotRunning — сигналы готовности Auth Service.
	KeyAuthRunning    = "auth.running"
	KeyAuthNotRunning = "auth.not_running"
)

// Структурированные audit логи (exchange logs).
const (
	KeyLogInfo  = "order.info"
	KeyLogDebug = "order.debug"
	KeyLogError = "order.error"
)

// Имена очередей сервиса. Все очереди durable.
const (
	QueuePaymentResult       = "order_payment_result_queue"
	QueueDeliveryResult      = "order_delivery_result_queue"
	QueueMoneyReturned       = "order_money_returned_queue"
	QueueFabricationCanceled = "order_evt_fabrication_canceled_queue"
	QueueRefundResult        = "order_refund_result_queue"
	QueueWarehouseEvents     = "order_warehouse_events_queue"
	QueueDeliveryStatus      = "order_delivery_status_queue"
	QueuePaymentLegacy       = "order_payment_legacy_queue"
	QueueAuthStatus          = "order_auth_status_queue"
)
