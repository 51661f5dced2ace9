package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Grupo-MACC/Order/internal/domain"
)

const testSagaID = "4b8c6f1e-0000-0000-0000-000000000001"

// newCancellation собирает сагу отмены с моками. Заказ уже в Canceling,
// как после допуска отмены.
func newCancellation(t *testing.T, orderID int64) (*Cancellation, *MockOrderStore, *MockCancelSagaStore, *MockCommandPublisher, *[]string) {
	t.Helper()

	orders := new(MockOrderStore)
	sagas := new(MockCancelSagaStore)
	pub := new(MockCommandPublisher)
	finished := []string{}

	order := testOrder(orderID)
	order.CreationStatus = domain.CreationConfirmed
	order.FabricationStatus = domain.FabricationCanceling

	inst := NewCancellation(testSagaID, order, orders, sagas, pub, MockAuditor{}, func(id string) {
		finished = append(finished, id)
	})

	return inst, orders, sagas, pub, &finished
}

func TestCancellation_HappyPath(t *testing.T) {
	inst, orders, sagas, pub, finished := newCancellation(t, 10)
	ctx := context.Background()

	pub.On("PublishCancelFabrication", mock.Anything, int64(10), testSagaID).Return(nil)
	require.NoError(t, inst.Start(ctx))
	assert.Equal(t, domain.CancelStateCanceling, inst.State())

	// Warehouse отменил производство: Canceling → Refunding, команда возврата.
	sagas.On("UpdateCancelSaga", mock.Anything, testSagaID, domain.CancelStateRefunding, "").Return(nil)
	pub.On("PublishRefund", mock.Anything, int64(10), int64(42), testSagaID).Return(nil)
	require.NoError(t, inst.Handle(ctx, Event{Type: EventFabricationCanceled}))
	assert.Equal(t, domain.CancelStateRefunding, inst.State())
	assert.False(t, inst.Finished())

	// Деньги вернулись: Refunding → Canceled.
	orders.On("UpdateFabricationStatus", mock.Anything, int64(10), domain.FabricationCanceled).Return(testOrder(10), nil)
	sagas.On("UpdateCancelSaga", mock.Anything, testSagaID, domain.CancelStateCanceled, "").Return(nil)
	require.NoError(t, inst.Handle(ctx, Event{Type: EventRefunded}))

	assert.Equal(t, domain.CancelStateCanceled, inst.State())
	assert.True(t, inst.Finished())
	assert.Equal(t, []string{testSagaID}, *finished)

	orders.AssertExpectations(t)
	sagas.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCancellation_RefundFailed(t *testing.T) {
	inst, orders, sagas, pub, finished := newCancellation(t, 11)
	ctx := context.Background()

	sagas.On("UpdateCancelSaga", mock.Anything, testSagaID, domain.CancelStateRefunding, "").Return(nil)
	pub.On("PublishRefund", mock.Anything, int64(11), int64(42), testSagaID).Return(nil)
	require.NoError(t, inst.Handle(ctx, Event{Type: EventFabricationCanceled}))

	// Возврат не прошёл: производство всё равно не возобновляется,
	// заказ уходит в CancelPendingRefund с причиной сбоя.
	orders.On("UpdateFabricationStatus", mock.Anything, int64(11), domain.FabricationCancelPendingRefund).Return(testOrder(11), nil)
	sagas.On("UpdateCancelSaga", mock.Anything, testSagaID, domain.CancelStateCancelPendingRefund, "карта заблокирована").Return(nil)
	require.NoError(t, inst.Handle(ctx, Event{Type: EventRefundFailed, Reason: "карта заблокирована"}))

	assert.Equal(t, domain.CancelStateCancelPendingRefund, inst.State())
	assert.True(t, inst.Finished())
	assert.Equal(t, []string{testSagaID}, *finished)

	orders.AssertExpectations(t)
	sagas.AssertExpectations(t)
}

func TestCancellation_RefundBeforeFabricationCanceled(t *testing.T) {
	inst, _, _, _, _ := newCancellation(t, 12)

	// refunded в Canceling недопустимо: сначала должно прийти
	// подтверждение отмены производства.
	err := inst.Handle(context.Background(), Event{Type: EventRefunded})
	require.ErrorIs(t, err, ErrUnexpectedEvent)
	assert.Equal(t, domain.CancelStateCanceling, inst.State())
}

func TestCancellation_ReplayAfterTerminal(t *testing.T) {
	inst, orders, sagas, pub, _ := newCancellation(t, 13)
	ctx := context.Background()

	sagas.On("UpdateCancelSaga", mock.Anything, testSagaID, domain.CancelStateRefunding, "").Return(nil)
	pub.On("PublishRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, inst.Handle(ctx, Event{Type: EventFabricationCanceled}))

	orders.On("UpdateFabricationStatus", mock.Anything, int64(13), domain.FabricationCanceled).Return(testOrder(13), nil)
	sagas.On("UpdateCancelSaga", mock.Anything, testSagaID, domain.CancelStateCanceled, "").Return(nil)
	require.NoError(t, inst.Handle(ctx, Event{Type: EventRefunded}))

	err := inst.Handle(ctx, Event{Type: EventRefunded})
	require.ErrorIs(t, err, ErrSagaFinished)
}
