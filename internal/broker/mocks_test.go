// Package broker — моки и стабы зависимостей ingress для тестов.
package broker

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// =============================================================================
// MockOrderService — мок service.OrderService
// =============================================================================

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, clientID int64, piecesA, piecesB int, description, address string) (*domain.Order, error) {
	args := m.Called(ctx, clientID, piecesA, piecesB, description, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id, requesterID int64, isAdmin bool) (*domain.Order, error) {
	args := m.Called(ctx, id, requesterID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, requesterID int64, isAdmin bool) ([]*domain.Order, error) {
	args := m.Called(ctx, requesterID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderService) OrderStatus(ctx context.Context, id, requesterID int64, isAdmin bool) (string, error) {
	args := m.Called(ctx, id, requesterID, isAdmin)
	return args.String(0), args.Error(1)
}

func (m *MockOrderService) RequestCancellation(ctx context.Context, id, requesterID int64, isAdmin bool) (string, error) {
	args := m.Called(ctx, id, requesterID, isAdmin)
	return args.String(0), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) ApplyFabricationEvent(ctx context.Context, orderID int64, rawStatus string) error {
	args := m.Called(ctx, orderID, rawStatus)
	return args.Error(0)
}

func (m *MockOrderService) ApplyDeliveryEvent(ctx context.Context, orderID int64, rawStatus string) error {
	args := m.Called(ctx, orderID, rawStatus)
	return args.Error(0)
}

func (m *MockOrderService) ApplyLegacyPaymentEvent(ctx context.Context, orderID int64, paid bool) error {
	args := m.Called(ctx, orderID, paid)
	return args.Error(0)
}

// =============================================================================
// MockKeyManager / MockDedupStore
// =============================================================================

type MockKeyManager struct {
	mock.Mock
}

func (m *MockKeyManager) HandleAuthRunning(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockKeyManager) HandleAuthStopped(ctx context.Context) {
	m.Called(ctx)
}

type MockDedupStore struct {
	mock.Mock
}

func (m *MockDedupStore) Seen(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupStore) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

// =============================================================================
// Стабы зависимостей саг: тестам ingress важен перевод сообщений
// в события, а не персистентность.
// =============================================================================

type stubOrderStore struct{}

func (stubOrderStore) UpdateCreationStatus(ctx context.Context, id int64, status domain.CreationStatus) (*domain.Order, error) {
	return &domain.Order{ID: id, CreationStatus: status}, nil
}

func (stubOrderStore) UpdateFabricationStatus(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, error) {
	return &domain.Order{ID: id, FabricationStatus: status}, nil
}

type stubCancelStore struct{}

func (stubCancelStore) UpdateCancelSaga(ctx context.Context, sagaID string, state domain.CancelSagaState, reason string) error {
	return nil
}

type stubPublisher struct{}

func (stubPublisher) PublishPayCommand(ctx context.Context, order *domain.Order) error     { return nil }
func (stubPublisher) PublishCheckDelivery(ctx context.Context, order *domain.Order) error  { return nil }
func (stubPublisher) PublishReturnMoney(ctx context.Context, order *domain.Order) error    { return nil }
func (stubPublisher) PublishFabricationOrder(ctx context.Context, order *domain.Order) error {
	return nil
}
func (stubPublisher) PublishCancelFabrication(ctx context.Context, orderID int64, sagaID string) error {
	return nil
}
func (stubPublisher) PublishRefund(ctx context.Context, orderID, userID int64, sagaID string) error {
	return nil
}

type stubAuditor struct{}

func (stubAuditor) Info(ctx context.Context, message string, fields map[string]any)  {}
func (stubAuditor) Error(ctx context.Context, message string, fields map[string]any) {}
