package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Grupo-MACC/Order/internal/domain"
)

func newTestService() (OrderService, *MockOrderRepository, *MockCancelSagaRepository, *MockSagaStarter, *MockEventPublisher) {
	orders := new(MockOrderRepository)
	sagas := new(MockCancelSagaRepository)
	reg := new(MockSagaStarter)
	pub := new(MockEventPublisher)
	svc := NewOrderService(orders, sagas, reg, pub, nopAuditor{})
	return svc, orders, sagas, reg, pub
}

func confirmedOrder(id, clientID int64) *domain.Order {
	return &domain.Order{
		ID:                id,
		ClientID:          clientID,
		PiecesA:           1,
		PiecesB:           2,
		NumberOfPieces:    3,
		CreationStatus:    domain.CreationConfirmed,
		FabricationStatus: domain.FabricationInProgress,
		DeliveryStatus:    domain.DeliveryNotStarted,
	}
}

// =============================================================================
// CreateOrder
// =============================================================================

func TestCreateOrder(t *testing.T) {
	svc, orders, _, reg, _ := newTestService()
	ctx := context.Background()

	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	reg.On("StartConfirmation", mock.Anything, mock.Anything).Return(nil)

	order, err := svc.CreateOrder(ctx, 42, 2, 3, "детали для станка", "ул. Ленина 1")
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.ClientID)
	assert.Equal(t, 5, order.NumberOfPieces)
	assert.Equal(t, domain.CreationPending, order.CreationStatus)
	assert.Equal(t, domain.FabricationNotStarted, order.FabricationStatus)

	orders.AssertExpectations(t)
	reg.AssertExpectations(t)
}

func TestCreateOrder_Empty(t *testing.T) {
	svc, orders, _, _, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), 42, 0, 0, "", "")
	require.ErrorIs(t, err, domain.ErrEmptyOrder)

	// До репозитория и саги дело не дошло.
	orders.AssertNotCalled(t, "Create")
}

func TestCreateOrder_SagaStartFails(t *testing.T) {
	svc, orders, _, reg, _ := newTestService()

	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	reg.On("StartConfirmation", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := svc.CreateOrder(context.Background(), 42, 1, 0, "", "")
	require.Error(t, err)
}

// =============================================================================
// GetOrder / ListOrders / OrderStatus
// =============================================================================

func TestGetOrder_Ownership(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	ctx := context.Background()

	orders.On("GetByID", mock.Anything, int64(1)).Return(confirmedOrder(1, 42), nil)

	// Владелец видит свой заказ.
	order, err := svc.GetOrder(ctx, 1, 42, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)

	// Чужой пользователь — 403.
	_, err = svc.GetOrder(ctx, 1, 99, false)
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Администратор видит любой заказ.
	_, err = svc.GetOrder(ctx, 1, 99, true)
	require.NoError(t, err)
}

func TestListOrders(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	ctx := context.Background()

	all := []*domain.Order{confirmedOrder(1, 42), confirmedOrder(2, 99)}
	own := []*domain.Order{confirmedOrder(1, 42)}

	orders.On("List", mock.Anything).Return(all, nil)
	orders.On("ListByClient", mock.Anything, int64(42)).Return(own, nil)

	got, err := svc.ListOrders(ctx, 42, true)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ListOrders(ctx, 42, false)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOrderStatus(t *testing.T) {
	svc, orders, _, _, _ := newTestService()

	orders.On("GetByID", mock.Anything, int64(1)).Return(confirmedOrder(1, 42), nil)

	status, err := svc.OrderStatus(context.Background(), 1, 42, false)
	require.NoError(t, err)
	assert.Equal(t, "Manufacturing:InProgress", status)
}

// =============================================================================
// RequestCancellation
// =============================================================================

func TestRequestCancellation(t *testing.T) {
	svc, orders, sagas, reg, _ := newTestService()
	ctx := context.Background()

	orders.On("GetByID", mock.Anything, int64(1)).Return(confirmedOrder(1, 42), nil)

	canceling := confirmedOrder(1, 42)
	canceling.FabricationStatus = domain.FabricationCanceling
	sagas.On("BeginCancellation", mock.Anything, mock.AnythingOfType("string"), int64(1)).Return(canceling, nil)
	reg.On("StartCancellation", mock.Anything, mock.AnythingOfType("string"), canceling).Return(nil)

	sagaID, err := svc.RequestCancellation(ctx, 1, 42, false)
	require.NoError(t, err)
	assert.NotEmpty(t, sagaID)

	sagas.AssertExpectations(t)
	reg.AssertExpectations(t)
}

func TestRequestCancellation_NotAllowed(t *testing.T) {
	svc, orders, sagas, _, _ := newTestService()

	completed := confirmedOrder(1, 42)
	completed.FabricationStatus = domain.FabricationCompleted

	orders.On("GetByID", mock.Anything, int64(1)).Return(completed, nil)
	sagas.On("BeginCancellation", mock.Anything, mock.AnythingOfType("string"), int64(1)).Return(nil, domain.ErrCancelNotAllowed)

	_, err := svc.RequestCancellation(context.Background(), 1, 42, false)
	require.ErrorIs(t, err, domain.ErrCancelNotAllowed)
}

func TestRequestCancellation_ForeignOrder(t *testing.T) {
	svc, orders, sagas, _, _ := newTestService()

	orders.On("GetByID", mock.Anything, int64(1)).Return(confirmedOrder(1, 42), nil)

	_, err := svc.RequestCancellation(context.Background(), 1, 99, false)
	require.ErrorIs(t, err, domain.ErrForbidden)
	sagas.AssertNotCalled(t, "BeginCancellation")
}

// =============================================================================
// ApplyFabricationEvent
// =============================================================================

func TestApplyFabricationEvent_PublishesOnCompletion(t *testing.T) {
	svc, orders, _, _, pub := newTestService()
	ctx := context.Background()

	prev := confirmedOrder(1, 42)
	orders.On("AdvanceFabrication", mock.Anything, int64(1), domain.FabricationCompleted).Return(prev, true, nil)
	pub.On("PublishOrderFabricated", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, svc.ApplyFabricationEvent(ctx, 1, "Completed"))
	pub.AssertExpectations(t)
}

func TestApplyFabricationEvent_DuplicateCompletion(t *testing.T) {
	svc, orders, _, _, pub := newTestService()
	ctx := context.Background()

	// Фаза уже терминальна: advanced=false, публикации нет.
	done := confirmedOrder(1, 42)
	done.FabricationStatus = domain.FabricationCompleted
	orders.On("AdvanceFabrication", mock.Anything, int64(1), domain.FabricationCompleted).Return(done, false, nil)

	require.NoError(t, svc.ApplyFabricationEvent(ctx, 1, "Completed"))
	pub.AssertNotCalled(t, "PublishOrderFabricated")
}

func TestApplyFabricationEvent_CancelingDropped(t *testing.T) {
	svc, orders, _, _, pub := newTestService()
	ctx := context.Background()

	// Заказ в процессе отмены: "completed" от Warehouse не двигает фазу
	// и не публикует order.fabricated.
	canceling := confirmedOrder(1, 42)
	canceling.FabricationStatus = domain.FabricationCanceling
	orders.On("AdvanceFabrication", mock.Anything, int64(1), domain.FabricationCompleted).Return(canceling, false, nil)

	require.NoError(t, svc.ApplyFabricationEvent(ctx, 1, "completed"))
	pub.AssertNotCalled(t, "PublishOrderFabricated")
}

func TestApplyFabricationEvent_NormalizesStatus(t *testing.T) {
	svc, orders, _, _, pub := newTestService()
	ctx := context.Background()

	// "in-progress" нормализуется в InProgress; публикации нет.
	prev := confirmedOrder(1, 42)
	prev.FabricationStatus = domain.FabricationRequested
	orders.On("AdvanceFabrication", mock.Anything, int64(1), domain.FabricationInProgress).Return(prev, true, nil)

	require.NoError(t, svc.ApplyFabricationEvent(ctx, 1, "in-progress"))
	pub.AssertNotCalled(t, "PublishOrderFabricated")
}

func TestApplyFabricationEvent_NoPublishWhenDeliveryStarted(t *testing.T) {
	svc, orders, _, _, pub := newTestService()
	ctx := context.Background()

	// Доставка уже шла (поздний дубликат в новой форме) — не публикуем.
	prev := confirmedOrder(1, 42)
	prev.DeliveryStatus = domain.DeliveryReady
	orders.On("AdvanceFabrication", mock.Anything, int64(1), domain.FabricationCompleted).Return(prev, true, nil)

	require.NoError(t, svc.ApplyFabricationEvent(ctx, 1, "Completed"))
	pub.AssertNotCalled(t, "PublishOrderFabricated")
}

func TestApplyFabricationEvent_PublishFailure(t *testing.T) {
	svc, orders, _, _, pub := newTestService()
	ctx := context.Background()

	prev := confirmedOrder(1, 42)
	orders.On("AdvanceFabrication", mock.Anything, int64(1), domain.FabricationCompleted).Return(prev, true, nil)
	pub.On("PublishOrderFabricated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	// Ошибка уходит наверх: сообщение будет доставлено повторно,
	// но статус уже терминален — второй публикации не случится.
	require.Error(t, svc.ApplyFabricationEvent(ctx, 1, "Completed"))
}

// =============================================================================
// ApplyDeliveryEvent / ApplyLegacyPaymentEvent
// =============================================================================

func TestApplyDeliveryEvent(t *testing.T) {
	svc, orders, _, _, _ := newTestService()

	prev := confirmedOrder(1, 42)
	prev.FabricationStatus = domain.FabricationCompleted
	orders.On("AdvanceDelivery", mock.Anything, int64(1), domain.DeliveryDelivered).Return(prev, true, nil)

	require.NoError(t, svc.ApplyDeliveryEvent(context.Background(), 1, "delivered"))
	orders.AssertExpectations(t)
}

func TestApplyDeliveryEvent_BeforeFabricationCompleted(t *testing.T) {
	svc, orders, _, _, _ := newTestService()

	// Производство ещё идёт: advanced=false, событие отброшено без ошибки.
	prev := confirmedOrder(1, 42)
	orders.On("AdvanceDelivery", mock.Anything, int64(1), domain.DeliveryReady).Return(prev, false, nil)

	require.NoError(t, svc.ApplyDeliveryEvent(context.Background(), 1, "ready"))
	orders.AssertExpectations(t)
}

func TestApplyLegacyPaymentEvent(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	ctx := context.Background()

	orders.On("UpdateCreationStatus", mock.Anything, int64(1), domain.CreationPaid).Return(confirmedOrder(1, 42), nil)
	require.NoError(t, svc.ApplyLegacyPaymentEvent(ctx, 1, true))

	orders.On("UpdateCreationStatus", mock.Anything, int64(2), domain.CreationNoMoney).Return(confirmedOrder(2, 42), nil)
	require.NoError(t, svc.ApplyLegacyPaymentEvent(ctx, 2, false))
}
