package broker

import (
	"context"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// BusPublisher — публикация одного сообщения в exchange.
// Реализуется pkg/rabbitmq.Publisher; в тестах подменяется моком.
type BusPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// OrderPublisher публикует команды и события Order Service.
// Единственная точка исходящего трафика: routing key берутся
// только из таблицы констант этого пакета.
type OrderPublisher struct {
	commands BusPublisher // exchange commands
	events   BusPublisher // exchange events
}

// NewOrderPublisher создаёт publisher поверх каналов команд и событий.
func NewOrderPublisher(commands, events BusPublisher) *OrderPublisher {
	return &OrderPublisher{commands: commands, events: events}
}

// PublishPayCommand отправляет команду оплаты в Payment Service.
func (p *OrderPublisher) PublishPayCommand(ctx context.Context, order *domain.Order) error {
	return p.commands.Publish(ctx, KeyPay, PayCommand{
		OrderID:        order.ID,
		UserID:         order.ClientID,
		NumberOfPieces: order.NumberOfPieces,
	})
}

// PublishCheckDelivery отправляет команду проверки доставки.
func (p *OrderPublisher) PublishCheckDelivery(ctx context.Context, order *domain.Order) error {
	return p.commands.Publish(ctx, KeyCheckDelivery, CheckDeliveryCommand{
		OrderID: order.ID,
		UserID:  order.ClientID,
		Address: order.Address,
	})
}

// PublishReturnMoney отправляет команду возврата денег.
func (p *OrderPublisher) PublishReturnMoney(ctx context.Context, order *domain.Order) error {
	return p.commands.Publish(ctx, KeyReturnMoney, ReturnMoneyCommand{
		OrderID: order.ID,
		UserID:  order.ClientID,
	})
}

// PublishFabricationOrder отправляет Warehouse команду на производство.
func (p *OrderPublisher) PublishFabricationOrder(ctx context.Context, order *domain.Order) error {
	return p.commands.Publish(ctx, KeyOrderCreated, FabricationOrderCommand{
		OrderID:        order.ID,
		NumberOfPieces: order.NumberOfPieces,
		PiecesA:        order.PiecesA,
		PiecesB:        order.PiecesB,
	})
}

// PublishCancelFabrication отправляет Warehouse команду отмены производства.
func (p *OrderPublisher) PublishCancelFabrication(ctx context.Context, orderID int64, sagaID string) error {
	return p.commands.Publish(ctx, KeyCancelFabrication, CancelFabricationCommand{
		OrderID: orderID,
		SagaID:  sagaID,
	})
}

// PublishRefund отправляет команду возврата денег при отмене заказа.
func (p *OrderPublisher) PublishRefund(ctx context.Context, orderID, userID int64, sagaID string) error {
	return p.commands.Publish(ctx, KeyRefund, RefundCommand{
		OrderID: orderID,
		UserID:  userID,
		SagaID:  sagaID,
	})
}

// PublishOrderFabricated публикует событие завершения производства.
// Потребляет Delivery Service.
func (p *OrderPublisher) PublishOrderFabricated(ctx context.Context, order *domain.Order) error {
	return p.events.Publish(ctx, KeyOrderFabricated, OrderFabricatedEvent{
		OrderID:        order.ID,
		NumberOfPieces: order.NumberOfPieces,
		UserID:         order.ClientID,
	})
}
