package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// isNotFound распознаёт событие для отсутствующего заказа.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrOrderNotFound)
}

// Обработчики событий платформы вне саг: ход производства, статус
// доставки, legacy уведомления Payment и сигналы Auth Service.

// handleWarehouseEvent — события хода производства (warehouse.#).
func (i *Ingress) handleWarehouseEvent(ctx context.Context, d amqp.Delivery) error {
	var msg WarehouseEventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}
	if msg.OrderID == nil {
		logger.FromContext(ctx).Warn().
			Str("routing_key", d.RoutingKey).
			Msg("Событие Warehouse без order_id, отброшено")
		return nil
	}

	orderID := *msg.OrderID
	ctx = logger.WithCorrelationID(ctx, fmt.Sprintf("order-%d", orderID))

	// Best-effort дедупликация по message_id до похода в БД.
	// Отметка ставится только ПОСЛЕ успешной обработки: nack-нутое
	// сообщение при повторной доставке обязано снова дойти до БД.
	// Транзакционная защита в ApplyFabricationEvent остаётся главной;
	// Redis лишь срезает повторные доставки дешевле.
	if d.MessageId != "" && i.dedup != nil {
		seen, err := i.dedup.Seen(ctx, d.MessageId)
		if err != nil {
			logger.FromContext(ctx).Warn().
				Err(err).
				Msg("Redis недоступен, дедупликация пропущена")
		} else if seen {
			logger.FromContext(ctx).Info().
				Str("message_id", d.MessageId).
				Msg("Повторная доставка события Warehouse, отброшено")
			return nil
		}
	}

	if err := i.svc.ApplyFabricationEvent(ctx, orderID, msg.RawStatus()); err != nil {
		if isNotFound(err) {
			logger.FromContext(ctx).Warn().
				Int64("order_id", orderID).
				Msg("Событие Warehouse для несуществующего заказа, отброшено")
			return nil
		}
		return err
	}

	if d.MessageId != "" && i.dedup != nil {
		if _, err := i.dedup.MarkProcessed(ctx, d.MessageId); err != nil {
			logger.FromContext(ctx).Warn().
				Err(err).
				Str("message_id", d.MessageId).
				Msg("Не удалось поставить отметку обработанного сообщения")
		}
	}

	return nil
}

// handleDeliveryStatus — delivery.finished / delivery.ready {order_id, status}.
func (i *Ingress) handleDeliveryStatus(ctx context.Context, d amqp.Delivery) error {
	var msg DeliveryStatusMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}

	ctx = logger.WithCorrelationID(ctx, fmt.Sprintf("order-%d", msg.OrderID))

	if err := i.svc.ApplyDeliveryEvent(ctx, msg.OrderID, msg.Status); err != nil {
		if isNotFound(err) {
			logger.FromContext(ctx).Warn().
				Int64("order_id", msg.OrderID).
				Msg("Событие Delivery для несуществующего заказа, отброшено")
			return nil
		}
		return err
	}

	return nil
}

// handlePaymentLegacy — payment.paid / payment.failed.
// Только информационное обновление creation_status, саг не трогает.
func (i *Ingress) handlePaymentLegacy(ctx context.Context, d amqp.Delivery) error {
	var msg PaymentLegacyMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logMalformed(ctx, d, err)
		return nil
	}

	ctx = logger.WithCorrelationID(ctx, fmt.Sprintf("order-%d", msg.OrderID))
	paid := d.RoutingKey == KeyPaymentPaid

	if err := i.svc.ApplyLegacyPaymentEvent(ctx, msg.OrderID, paid); err != nil {
		if isNotFound(err) {
			logger.FromContext(ctx).Warn().
				Int64("order_id", msg.OrderID).
				Msg("Legacy событие Payment для несуществующего заказа, отброшено")
			return nil
		}
		return err
	}

	return nil
}

// handleAuthStatus — auth.running / auth.not_running.
func (i *Ingress) handleAuthStatus(ctx context.Context, d amqp.Delivery) error {
	log := logger.FromContext(ctx)

	switch d.RoutingKey {
	case KeyAuthRunning:
		// Ошибка загрузки ключа — временная: nack, Auth переиздаст
		// сигнал, либо повтор доставки добьёт загрузку.
		if err := i.keys.HandleAuthRunning(ctx); err != nil {
			return err
		}
		log.Info().Msg("Auth Service запущен, публичный ключ обновлён")

	case KeyAuthNotRunning:
		i.keys.HandleAuthStopped(ctx)
		log.Warn().Msg("Auth Service остановлен, ключ помечен недействительным")

	default:
		log.Warn().Str("routing_key", d.RoutingKey).Msg("Неизвестный сигнал Auth, отброшен")
	}

	return nil
}
