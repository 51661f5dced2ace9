// Package service содержит бизнес-логику Order Service.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Grupo-MACC/Order/internal/domain"
	"github.com/Grupo-MACC/Order/internal/repository"
	"github.com/Grupo-MACC/Order/pkg/logger"
)

// SagaStarter — запуск саг. Реализуется saga.Registry.
type SagaStarter interface {
	StartConfirmation(ctx context.Context, order *domain.Order) error
	StartCancellation(ctx context.Context, sagaID string, order *domain.Order) error
}

// EventPublisher — исходящие события сервиса. Реализуется broker.OrderPublisher.
type EventPublisher interface {
	PublishOrderFabricated(ctx context.Context, order *domain.Order) error
}

// Auditor — best-effort audit записи. Реализуется broker.AuditLogger.
type Auditor interface {
	Info(ctx context.Context, message string, fields map[string]any)
	Error(ctx context.Context, message string, fields map[string]any)
}

// OrderService определяет бизнес-операции над заказами.
type OrderService interface {
	// CreateOrder создаёт заказ и запускает сагу подтверждения.
	CreateOrder(ctx context.Context, clientID int64, piecesA, piecesB int, description, address string) (*domain.Order, error)

	// GetOrder возвращает заказ. Пользователь видит только свои заказы,
	// администратор — любые.
	GetOrder(ctx context.Context, id, requesterID int64, isAdmin bool) (*domain.Order, error)

	// ListOrders возвращает заказы пользователя; администратору — все.
	ListOrders(ctx context.Context, requesterID int64, isAdmin bool) ([]*domain.Order, error)

	// OrderStatus возвращает сводный статус заказа для UI.
	OrderStatus(ctx context.Context, id, requesterID int64, isAdmin bool) (string, error)

	// RequestCancellation выполняет допуск отмены и запускает сагу отмены.
	// Возвращает saga_id или domain.ErrCancelNotAllowed.
	RequestCancellation(ctx context.Context, id, requesterID int64, isAdmin bool) (string, error)

	// DeleteOrder физически удаляет заказ (только администратор).
	DeleteOrder(ctx context.Context, id int64) error

	// ApplyFabricationEvent применяет событие хода производства от
	// Warehouse: нормализует статус, продвигает фазу и публикует
	// order.fabricated при завершении (не более одного раза на заказ).
	ApplyFabricationEvent(ctx context.Context, orderID int64, rawStatus string) error

	// ApplyDeliveryEvent применяет обновление статуса доставки.
	ApplyDeliveryEvent(ctx context.Context, orderID int64, rawStatus string) error

	// ApplyLegacyPaymentEvent применяет legacy уведомление Payment.
	// Обновляет только creation_status, переходов саги не вызывает.
	ApplyLegacyPaymentEvent(ctx context.Context, orderID int64, paid bool) error
}

// orderService — реализация OrderService.
type orderService struct {
	orders repository.OrderRepository
	sagas  repository.CancelSagaRepository
	reg    SagaStarter
	pub    EventPublisher
	audit  Auditor
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(
	orders repository.OrderRepository,
	sagas repository.CancelSagaRepository,
	reg SagaStarter,
	pub EventPublisher,
	audit Auditor,
) OrderService {
	return &orderService{
		orders: orders,
		sagas:  sagas,
		reg:    reg,
		pub:    pub,
		audit:  audit,
	}
}

// CreateOrder создаёт заказ и запускает сагу подтверждения.
func (s *orderService) CreateOrder(ctx context.Context, clientID int64, piecesA, piecesB int, description, address string) (*domain.Order, error) {
	order, err := domain.NewOrder(clientID, piecesA, piecesB, description, address)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	ctx = logger.WithCorrelationID(ctx, fmt.Sprintf("order-%d", order.ID))

	if err := s.reg.StartConfirmation(ctx, order); err != nil {
		logger.FromContext(ctx).Error().
			Err(err).
			Int64("order_id", order.ID).
			Msg("Ошибка запуска саги подтверждения")
		return nil, fmt.Errorf("ошибка запуска саги подтверждения: %w", err)
	}

	s.audit.Info(ctx, "Заказ создан", map[string]any{
		"order_id":  order.ID,
		"client_id": clientID,
		"pieces":    order.NumberOfPieces,
	})

	return order, nil
}

// GetOrder возвращает заказ с проверкой владельца.
func (s *orderService) GetOrder(ctx context.Context, id, requesterID int64, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && order.ClientID != requesterID {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

// ListOrders возвращает список заказов.
func (s *orderService) ListOrders(ctx context.Context, requesterID int64, isAdmin bool) ([]*domain.Order, error) {
	if isAdmin {
		return s.orders.List(ctx)
	}
	return s.orders.ListByClient(ctx, requesterID)
}

// OrderStatus возвращает сводный статус заказа.
func (s *orderService) OrderStatus(ctx context.Context, id, requesterID int64, isAdmin bool) (string, error) {
	order, err := s.GetOrder(ctx, id, requesterID, isAdmin)
	if err != nil {
		return "", err
	}
	return order.OverallStatus(), nil
}

// RequestCancellation — допуск и запуск саги отмены.
func (s *orderService) RequestCancellation(ctx context.Context, id, requesterID int64, isAdmin bool) (string, error) {
	// Проверка владельца до каких-либо побочных эффектов.
	if _, err := s.GetOrder(ctx, id, requesterID, isAdmin); err != nil {
		return "", err
	}

	sagaID := uuid.New().String()
	ctx = logger.WithCorrelationID(ctx, sagaID)

	order, err := s.sagas.BeginCancellation(ctx, sagaID, id)
	if err != nil {
		return "", err
	}

	if err := s.reg.StartCancellation(ctx, sagaID, order); err != nil {
		// Запись cancel_saga уже создана; команда отмены не ушла.
		// Повторный POST /cancel вернёт 409 — сага чинится вручную
		// или синтетическим событием.
		logger.FromContext(ctx).Error().
			Err(err).
			Str("saga_id", sagaID).
			Int64("order_id", id).
			Msg("Ошибка запуска саги отмены")
		return "", fmt.Errorf("ошибка запуска саги отмены: %w", err)
	}

	s.audit.Info(ctx, "Отмена заказа допущена", map[string]any{
		"order_id": id,
		"saga_id":  sagaID,
	})

	return sagaID, nil
}

// DeleteOrder физически удаляет заказ.
func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Info(ctx, "Заказ удалён администратором", map[string]any{
		"order_id": id,
	})
	return nil
}

// ApplyFabricationEvent применяет событие хода производства.
func (s *orderService) ApplyFabricationEvent(ctx context.Context, orderID int64, rawStatus string) error {
	log := logger.FromContext(ctx)
	status := domain.NormalizeFabricationStatus(rawStatus)

	prev, advanced, err := s.orders.AdvanceFabrication(ctx, orderID, status)
	if err != nil {
		return err
	}

	if !advanced {
		// Переход запрещён: фаза терминальна, заказ отменяется или
		// ещё не подтверждён. Дубликат либо событие вне допустимой
		// последовательности — ack без изменений.
		log.Info().
			Int64("order_id", orderID).
			Str("fabrication_status", string(prev.FabricationStatus)).
			Str("creation_status", string(prev.CreationStatus)).
			Str("raw_status", rawStatus).
			Msg("Событие производства отброшено без перехода")
		s.audit.Info(ctx, "Событие производства отброшено", map[string]any{
			"order_id": orderID,
			"status":   rawStatus,
		})
		return nil
	}

	log.Info().
		Int64("order_id", orderID).
		Str("from", string(prev.FabricationStatus)).
		Str("to", string(status)).
		Msg("Статус производства обновлён")

	// order.fabricated публикуется только на переходе В Completed
	// при ещё не начатой доставке. Предыдущий статус прочитан в той же
	// транзакции, что и запись — повторная доставка события публикацию
	// не повторит.
	if status == domain.FabricationCompleted && prev.DeliveryStatus == domain.DeliveryNotStarted {
		fabricated := *prev
		fabricated.FabricationStatus = domain.FabricationCompleted
		if err := s.pub.PublishOrderFabricated(ctx, &fabricated); err != nil {
			s.audit.Error(ctx, "Ошибка публикации order.fabricated", map[string]any{
				"order_id": orderID,
			})
			return err
		}
	}

	return nil
}

// ApplyDeliveryEvent применяет обновление статуса доставки.
func (s *orderService) ApplyDeliveryEvent(ctx context.Context, orderID int64, rawStatus string) error {
	status := domain.NormalizeDeliveryStatus(rawStatus)

	prev, advanced, err := s.orders.AdvanceDelivery(ctx, orderID, status)
	if err != nil {
		return err
	}

	if !advanced {
		// Доставка не начинается, пока производство не завершено.
		logger.FromContext(ctx).Info().
			Int64("order_id", orderID).
			Str("fabrication_status", string(prev.FabricationStatus)).
			Str("raw_status", rawStatus).
			Msg("Событие доставки до завершения производства, отброшено")
		return nil
	}

	logger.FromContext(ctx).Info().
		Int64("order_id", orderID).
		Str("delivery_status", string(status)).
		Msg("Статус доставки обновлён")

	return nil
}

// ApplyLegacyPaymentEvent применяет legacy уведомление Payment.
func (s *orderService) ApplyLegacyPaymentEvent(ctx context.Context, orderID int64, paid bool) error {
	status := domain.CreationPaid
	if !paid {
		status = domain.CreationNoMoney
	}

	if _, err := s.orders.UpdateCreationStatus(ctx, orderID, status); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().
		Int64("order_id", orderID).
		Str("creation_status", string(status)).
		Msg("Legacy событие Payment применено")

	return nil
}
