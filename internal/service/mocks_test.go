// Package service — моки зависимостей сервиса для тестов.
package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// =============================================================================
// MockOrderRepository — мок repository.OrderRepository
// =============================================================================

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.ID = 1
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateCreationStatus(ctx context.Context, id int64, status domain.CreationStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateFabricationStatus(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) AdvanceFabrication(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, bool, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) AdvanceDelivery(ctx context.Context, id int64, status domain.DeliveryStatus) (*domain.Order, bool, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =============================================================================
// MockCancelSagaRepository — мок repository.CancelSagaRepository
// =============================================================================

type MockCancelSagaRepository struct {
	mock.Mock
}

func (m *MockCancelSagaRepository) BeginCancellation(ctx context.Context, sagaID string, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, sagaID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockCancelSagaRepository) UpdateCancelSaga(ctx context.Context, sagaID string, state domain.CancelSagaState, reason string) error {
	args := m.Called(ctx, sagaID, state, reason)
	return args.Error(0)
}

func (m *MockCancelSagaRepository) GetBySagaID(ctx context.Context, sagaID string) (*domain.CancelSagaRecord, error) {
	args := m.Called(ctx, sagaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancelSagaRecord), args.Error(1)
}

// =============================================================================
// MockSagaStarter — мок SagaStarter
// =============================================================================

type MockSagaStarter struct {
	mock.Mock
}

func (m *MockSagaStarter) StartConfirmation(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSagaStarter) StartCancellation(ctx context.Context, sagaID string, order *domain.Order) error {
	args := m.Called(ctx, sagaID, order)
	return args.Error(0)
}

// =============================================================================
// MockEventPublisher — мок EventPublisher
// =============================================================================

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishOrderFabricated(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// nopAuditor — заглушка Auditor: audit best-effort и в тестах не проверяется.
type nopAuditor struct{}

func (nopAuditor) Info(ctx context.Context, message string, fields map[string]any)  {}
func (nopAuditor) Error(ctx context.Context, message string, fields map[string]any) {}
