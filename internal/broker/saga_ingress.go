package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Grupo-MACC/Order/internal/saga"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// Обработчики ответов воркеров. Перевод статусов из сообщений во
// внутренние события саг происходит здесь — дальше ingress'а «сырые»
// статусы не проходят.
//
// Политика ошибок (см. MessageHandler): битый JSON и неизвестная
// корреляция — log + ack (drop); сбой персистентности — ошибка наверх,
// nack и повторная доставка.

// handlePaymentResult — payment.result {order_id, status ∈ paid|not_paid}.
func (i *Ingress) handlePaymentResult(ctx context.Context, d amqp.Delivery) error {
	var msg PaymentResultMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}

	var ev saga.Event
	switch msg.Status {
	case "paid":
		ev = saga.Event{Type: saga.EventPaymentAccepted}
	case "not_paid":
		ev = saga.Event{Type: saga.EventPaymentRejected}
	default:
		logger.FromContext(ctx).Warn().
			Str("status", msg.Status).
			Int64("order_id", msg.OrderID).
			Msg("Неизвестный статус payment.result, сообщение отброшено")
		return nil
	}

	return i.dispatchConfirmation(ctx, msg.OrderID, ev)
}

// handleDeliveryResult — delivery.result {order_id, status ∈ deliverable|not_deliverable}.
func (i *Ingress) handleDeliveryResult(ctx context.Context, d amqp.Delivery) error {
	var msg DeliveryResultMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}

	var ev saga.Event
	switch msg.Status {
	case "deliverable":
		ev = saga.Event{Type: saga.EventDeliveryPossible}
	case "not_deliverable":
		ev = saga.Event{Type: saga.EventDeliveryNotPossible}
	default:
		logger.FromContext(ctx).Warn().
			Str("status", msg.Status).
			Int64("order_id", msg.OrderID).
			Msg("Неизвестный статус delivery.result, сообщение отброшено")
		return nil
	}

	return i.dispatchConfirmation(ctx, msg.OrderID, ev)
}

// handleMoneyReturned — money.returned {order_id}.
func (i *Ingress) handleMoneyReturned(ctx context.Context, d amqp.Delivery) error {
	var msg MoneyReturnedMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}

	return i.dispatchConfirmation(ctx, msg.OrderID, saga.Event{Type: saga.EventMoneyReturned})
}

// dispatchConfirmation находит сагу подтверждения по order_id
// и передаёт ей событие.
func (i *Ingress) dispatchConfirmation(ctx context.Context, orderID int64, ev saga.Event) error {
	ctx = logger.WithCorrelationID(ctx, fmt.Sprintf("order-%d", orderID))

	inst, ok := i.registry.Confirmation(orderID)
	if !ok {
		// Сага отсутствует или уже завершилась: replay или чужое событие.
		logger.FromContext(ctx).Warn().
			Int64("order_id", orderID).
			Str("event", string(ev.Type)).
			Msg("Событие без активной саги подтверждения, отброшено")
		return nil
	}

	if err := inst.Handle(ctx, ev); err != nil {
		if saga.IsDrop(err) {
			logger.FromContext(ctx).Warn().
				Err(err).
				Int64("order_id", orderID).
				Msg("Событие саги подтверждения отброшено")
			return nil
		}
		return err
	}

	return nil
}

// handleFabricationCanceled — evt.fabrication_canceled {saga_id, order_id}.
func (i *Ingress) handleFabricationCanceled(ctx context.Context, d amqp.Delivery) error {
	var msg FabricationCanceledMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}
	if msg.SagaID == "" {
		logger.FromContext(ctx).Warn().
			Str("routing_key", d.RoutingKey).
			Msg("evt.fabrication_canceled без saga_id, отброшено")
		return nil
	}

	return i.dispatchCancellation(ctx, msg.SagaID, saga.Event{Type: saga.EventFabricationCanceled})
}

// handleRefundResult — refund.result {saga_id, status, reason?}.
// Старые ревизии Payment публикуют evt_refunded / evt_refund_failed,
// при этом статус может отсутствовать — тогда он берётся из routing key.
func (i *Ingress) handleRefundResult(ctx context.Context, d amqp.Delivery) error {
	var msg RefundResultMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}
	if msg.SagaID == "" {
		logger.FromContext(ctx).Warn().
			Str("routing_key", d.RoutingKey).
			Msg("refund.result без saga_id, отброшено")
		return nil
	}

	status := msg.Status
	if status == "" {
		switch d.RoutingKey {
		case KeyRefundedLegacy:
			status = "refunded"
		case KeyRefundFailedLegacy:
			status = "refund_failed"
		}
	}

	ev := saga.Event{Type: saga.EventRefundFailed, Reason: msg.Reason}
	if status == "refunded" {
		ev = saga.Event{Type: saga.EventRefunded}
	}

	return i.dispatchCancellation(ctx, msg.SagaID, ev)
}

// dispatchCancellation находит сагу отмены по saga_id и передаёт событие.
func (i *Ingress) dispatchCancellation(ctx context.Context, sagaID string, ev saga.Event) error {
	ctx = logger.WithCorrelationID(ctx, sagaID)

	inst, ok := i.registry.Cancellation(sagaID)
	if !ok {
		logger.FromContext(ctx).Warn().
			Str("saga_id", sagaID).
			Str("event", string(ev.Type)).
			Msg("Событие без активной саги отмены, отброшено")
		return nil
	}

	if err := inst.Handle(ctx, ev); err != nil {
		if saga.IsDrop(err) {
			logger.FromContext(ctx).Warn().
				Err(err).
				Str("saga_id", sagaID).
				Msg("Событие саги отмены отброшено")
			return nil
		}
		return err
	}

	return nil
}

// logMalformed логирует сообщение, которое не удалось декодировать.
// Такие сообщения подтверждаются: повтор доставки ничего не исправит.
func logMalformed(ctx context.Context, d amqp.Delivery, err error) {
	logger.FromContext(ctx).Warn().
		Err(err).
		Str("routing_key", d.RoutingKey).
		Str("message_id", d.MessageId).
		Msg("Некорректное сообщение шины, отброшено")
}
