// Package saga — моки зависимостей саг для тестов.
package saga

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// =============================================================================
// MockOrderStore — мок OrderStore
// =============================================================================

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) UpdateCreationStatus(ctx context.Context, id int64, status domain.CreationStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStore) UpdateFabricationStatus(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// =============================================================================
// MockCancelSagaStore — мок CancelSagaStore
// =============================================================================

type MockCancelSagaStore struct {
	mock.Mock
}

func (m *MockCancelSagaStore) UpdateCancelSaga(ctx context.Context, sagaID string, state domain.CancelSagaState, reason string) error {
	args := m.Called(ctx, sagaID, state, reason)
	return args.Error(0)
}

// =============================================================================
// MockCommandPublisher — мок CommandPublisher
// =============================================================================

type MockCommandPublisher struct {
	mock.Mock
}

func (m *MockCommandPublisher) PublishPayCommand(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockCommandPublisher) PublishCheckDelivery(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockCommandPublisher) PublishReturnMoney(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockCommandPublisher) PublishFabricationOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockCommandPublisher) PublishCancelFabrication(ctx context.Context, orderID int64, sagaID string) error {
	args := m.Called(ctx, orderID, sagaID)
	return args.Error(0)
}

func (m *MockCommandPublisher) PublishRefund(ctx context.Context, orderID, userID int64, sagaID string) error {
	args := m.Called(ctx, orderID, userID, sagaID)
	return args.Error(0)
}

// =============================================================================
// MockAuditor — мок Auditor
// =============================================================================

// MockAuditor игнорирует вызовы: audit — best-effort, тесты
// проверяют переходы, а не содержимое аудита.
type MockAuditor struct{}

func (MockAuditor) Info(ctx context.Context, message string, fields map[string]any)  {}
func (MockAuditor) Error(ctx context.Context, message string, fields map[string]any) {}

// testOrder возвращает заказ в начальном состоянии всех фаз.
func testOrder(id int64) *domain.Order {
	return &domain.Order{
		ID:                id,
		ClientID:          42,
		PiecesA:           2,
		PiecesB:           3,
		NumberOfPieces:    5,
		CreationStatus:    domain.CreationPending,
		FabricationStatus: domain.FabricationNotStarted,
		DeliveryStatus:    domain.DeliveryNotStarted,
	}
}
