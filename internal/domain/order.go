// Package domain содержит бизнес-сущности и доменные ошибки Order Service.
package domain

import (
	"time"
)

// CreationStatus — статус фазы оформления заказа.
// Меняется исключительно сагой подтверждения.
type CreationStatus string

const (
	// CreationPending — заказ создан, ожидает результата оплаты.
	CreationPending CreationStatus = "Pending"

	// CreationPaid — оплата прошла, ожидаем проверку доставки.
	CreationPaid CreationStatus = "Paid"

	// CreationConfirmed — заказ подтверждён, производство запрошено.
	CreationConfirmed CreationStatus = "Confirmed"

	// CreationNoMoney — оплата отклонена, заказ не продолжается.
	CreationNoMoney CreationStatus = "NoMoney"

	// CreationNotDeliverable — доставка невозможна, запущен возврат денег.
	CreationNotDeliverable CreationStatus = "NotDeliverable"

	// CreationReturned — деньги возвращены после невозможной доставки.
	CreationReturned CreationStatus = "Returned"
)

// FabricationStatus — статус фазы производства.
// Продвигается событиями Warehouse и сагой отмены.
type FabricationStatus string

const (
	FabricationNotStarted          FabricationStatus = "NotStarted"
	FabricationRequested           FabricationStatus = "Requested"
	FabricationInProgress          FabricationStatus = "InProgress"
	FabricationCompleted           FabricationStatus = "Completed"
	FabricationFailed              FabricationStatus = "Failed"
	FabricationCanceling           FabricationStatus = "Canceling"
	FabricationCanceled            FabricationStatus = "Canceled"
	FabricationCancelPendingRefund FabricationStatus = "CancelPendingRefund"
)

// IsTerminal возвращает true, если фаза производства завершена.
// Из терминального статуса события Warehouse фазу уже не двигают.
func (s FabricationStatus) IsTerminal() bool {
	switch s {
	case FabricationCompleted, FabricationFailed, FabricationCanceled, FabricationCancelPendingRefund:
		return true
	}
	return false
}

// DeliveryStatus — статус фазы доставки. Продвигается событиями Delivery.
type DeliveryStatus string

const (
	DeliveryNotStarted DeliveryStatus = "NotStarted"
	DeliveryReady      DeliveryStatus = "Ready"
	DeliveryDelivered  DeliveryStatus = "Delivered"
	DeliveryFailed     DeliveryStatus = "Failed"
)

// Order — заказ на производство.
// Доменная сущность без зависимостей от инфраструктуры (GORM, HTTP DTO).
type Order struct {
	ID                int64             // Идентификатор заказа, назначается БД
	ClientID          int64             // ID пользователя, создавшего заказ
	Description       string            // Описание заказа
	Address           string            // Адрес доставки (опционально)
	PiecesA           int               // Количество деталей типа A
	PiecesB           int               // Количество деталей типа B
	NumberOfPieces    int               // Всегда равно PiecesA + PiecesB
	CreationStatus    CreationStatus    // Фаза оформления
	FabricationStatus FabricationStatus // Фаза производства
	DeliveryStatus    DeliveryStatus    // Фаза доставки
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewOrder создаёт заказ в начальных статусах всех трёх фаз.
// NumberOfPieces вычисляется из PiecesA и PiecesB.
func NewOrder(clientID int64, piecesA, piecesB int, description, address string) (*Order, error) {
	if piecesA < 0 || piecesB < 0 {
		return nil, ErrNegativePieces
	}
	if piecesA+piecesB < 1 {
		return nil, ErrEmptyOrder
	}

	return &Order{
		ClientID:          clientID,
		Description:       description,
		Address:           address,
		PiecesA:           piecesA,
		PiecesB:           piecesB,
		NumberOfPieces:    piecesA + piecesB,
		CreationStatus:    CreationPending,
		FabricationStatus: FabricationNotStarted,
		DeliveryStatus:    DeliveryNotStarted,
	}, nil
}

// Validate проверяет инварианты заказа.
func (o *Order) Validate() error {
	if o.PiecesA < 0 || o.PiecesB < 0 {
		return ErrNegativePieces
	}
	if o.PiecesA+o.PiecesB < 1 {
		return ErrEmptyOrder
	}
	if o.NumberOfPieces != o.PiecesA+o.PiecesB {
		return ErrPiecesMismatch
	}
	return nil
}

// CanRequestFabrication проверяет инвариант: производство можно
// запросить только у подтверждённого заказа.
func (o *Order) CanRequestFabrication() bool {
	return o.CreationStatus == CreationConfirmed
}

// CanCancel проверяет правило допуска отмены: заказ подтверждён,
// производство запрошено или идёт, отмена ещё не начиналась.
func (o *Order) CanCancel() bool {
	if o.CreationStatus != CreationConfirmed {
		return false
	}
	switch o.FabricationStatus {
	case FabricationRequested, FabricationInProgress:
		return true
	}
	return false
}

// OverallStatus возвращает сводный статус для UI.
// Активна самая поздняя фаза, которая уже сдвинулась с места.
func (o *Order) OverallStatus() string {
	if o.DeliveryStatus != DeliveryNotStarted {
		return "Delivery:" + string(o.DeliveryStatus)
	}
	if o.FabricationStatus != FabricationNotStarted {
		return "Manufacturing:" + string(o.FabricationStatus)
	}
	return "Creation:" + string(o.CreationStatus)
}
