package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	order, err := NewOrder(7, 3, 2, "стулья", "ул. Ленина 1")
	require.NoError(t, err)

	assert.Equal(t, int64(7), order.ClientID)
	assert.Equal(t, 5, order.NumberOfPieces)
	assert.Equal(t, CreationPending, order.CreationStatus)
	assert.Equal(t, FabricationNotStarted, order.FabricationStatus)
	assert.Equal(t, DeliveryNotStarted, order.DeliveryStatus)
}

func TestNewOrder_Empty(t *testing.T) {
	_, err := NewOrder(7, 0, 0, "", "")
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestNewOrder_NegativePieces(t *testing.T) {
	_, err := NewOrder(7, -1, 2, "", "")
	assert.ErrorIs(t, err, ErrNegativePieces)
}

func TestOrder_Validate_PiecesMismatch(t *testing.T) {
	order, err := NewOrder(7, 3, 2, "", "")
	require.NoError(t, err)

	order.NumberOfPieces = 6
	assert.ErrorIs(t, order.Validate(), ErrPiecesMismatch)
}

func TestFabricationStatus_IsTerminal(t *testing.T) {
	terminal := []FabricationStatus{
		FabricationCompleted, FabricationFailed,
		FabricationCanceled, FabricationCancelPendingRefund,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "статус %s должен быть терминальным", s)
	}

	active := []FabricationStatus{
		FabricationNotStarted, FabricationRequested,
		FabricationInProgress, FabricationCanceling,
	}
	for _, s := range active {
		assert.False(t, s.IsTerminal(), "статус %s не должен быть терминальным", s)
	}
}

func TestOrder_CanCancel(t *testing.T) {
	tests := []struct {
		name        string
		creation    CreationStatus
		fabrication FabricationStatus
		want        bool
	}{
		{"запрошено производство", CreationConfirmed, FabricationRequested, true},
		{"производство идёт", CreationConfirmed, FabricationInProgress, true},
		{"заказ не подтверждён", CreationPaid, FabricationRequested, false},
		{"оплата отклонена", CreationNoMoney, FabricationNotStarted, false},
		{"уже отменяется", CreationConfirmed, FabricationCanceling, false},
		{"уже отменён", CreationConfirmed, FabricationCanceled, false},
		{"ожидает возврата", CreationConfirmed, FabricationCancelPendingRefund, false},
		{"производство завершено", CreationConfirmed, FabricationCompleted, false},
		{"производство не начато", CreationConfirmed, FabricationNotStarted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{CreationStatus: tt.creation, FabricationStatus: tt.fabrication}
			assert.Equal(t, tt.want, o.CanCancel())
		})
	}
}

func TestOrder_OverallStatus(t *testing.T) {
	o := &Order{
		CreationStatus:    CreationConfirmed,
		FabricationStatus: FabricationNotStarted,
		DeliveryStatus:    DeliveryNotStarted,
	}
	assert.Equal(t, "Creation:Confirmed", o.OverallStatus())

	o.FabricationStatus = FabricationCompleted
	assert.Equal(t, "Manufacturing:Completed", o.OverallStatus())

	o.DeliveryStatus = DeliveryReady
	assert.Equal(t, "Delivery:Ready", o.OverallStatus())
}
