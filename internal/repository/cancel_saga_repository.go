package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// CancelSagaRepository определяет операции над таблицей cancel_saga.
type CancelSagaRepository interface {
	// BeginCancellation атомарно выполняет допуск отмены: проверяет
	// правило допуска, создаёт запись cancel_saga в состоянии Canceling
	// и переводит fabrication_status в Canceling. Одна транзакция —
	// гонка с событиями Warehouse исключена.
	//
	// Возвращает заказ после обновления, domain.ErrOrderNotFound
	// или domain.ErrCancelNotAllowed.
	BeginCancellation(ctx context.Context, sagaID string, orderID int64) (*domain.Order, error)

	// UpdateCancelSaga сохраняет новое состояние саги (и причину сбоя
	// возврата, если есть).
	UpdateCancelSaga(ctx context.Context, sagaID string, state domain.CancelSagaState, reason string) error

	// GetBySagaID возвращает запись саги или domain.ErrCancelSagaNotFound.
	GetBySagaID(ctx context.Context, sagaID string) (*domain.CancelSagaRecord, error)
}

// CancelSagaModel — GORM модель таблицы cancel_saga.
type CancelSagaModel struct {
	SagaID    string    `gorm:"column:saga_id;type:varchar(36);primaryKey"`
	OrderID   int64     `gorm:"column:order_id;not null;index"`
	State     string    `gorm:"column:state;type:varchar(32);not null"`
	Error     string    `gorm:"column:error;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (CancelSagaModel) TableName() string {
	return "cancel_saga"
}

// toDomain конвертирует GORM модель в доменную сущность.
func (m *CancelSagaModel) toDomain() *domain.CancelSagaRecord {
	return &domain.CancelSagaRecord{
		SagaID:    m.SagaID,
		OrderID:   m.OrderID,
		State:     domain.CancelSagaState(m.State),
		Error:     m.Error,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// cancelSagaRepository — GORM реализация CancelSagaRepository.
type cancelSagaRepository struct {
	db *gorm.DB
}

// NewCancelSagaRepository создаёт репозиторий саг отмены.
func NewCancelSagaRepository(db *gorm.DB) CancelSagaRepository {
	return &cancelSagaRepository{db: db}
}

// BeginCancellation — атомарный допуск отмены.
func (r *cancelSagaRepository) BeginCancellation(ctx context.Context, sagaID string, orderID int64) (*domain.Order, error) {
	var order *domain.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model OrderModel
		if err := tx.First(&model, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("ошибка чтения заказа %d: %w", orderID, err)
		}

		candidate := model.toDomain()
		if !candidate.CanCancel() {
			return domain.ErrCancelNotAllowed
		}

		saga := &CancelSagaModel{
			SagaID:  sagaID,
			OrderID: orderID,
			State:   string(domain.CancelStateCanceling),
		}
		if err := tx.Create(saga).Error; err != nil {
			return fmt.Errorf("ошибка создания записи cancel_saga: %w", err)
		}

		// Условие на текущий статус блокирует гонку: если событие
		// Warehouse успело завершить производство между чтением
		// и записью — отмена не допускается.
		result := tx.Model(&OrderModel{}).
			Where("id = ? AND fabrication_status IN ?", orderID, []string{
				string(domain.FabricationRequested),
				string(domain.FabricationInProgress),
			}).
			Update("fabrication_status", string(domain.FabricationCanceling))
		if result.Error != nil {
			return fmt.Errorf("ошибка перевода заказа %d в Canceling: %w", orderID, result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrCancelNotAllowed
		}

		candidate.FabricationStatus = domain.FabricationCanceling
		order = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateCancelSaga сохраняет новое состояние саги.
func (r *cancelSagaRepository) UpdateCancelSaga(ctx context.Context, sagaID string, state domain.CancelSagaState, reason string) error {
	updates := map[string]any{"state": string(state)}
	if reason != "" {
		updates["error"] = reason
	}

	result := r.db.WithContext(ctx).
		Model(&CancelSagaModel{}).
		Where("saga_id = ?", sagaID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("ошибка обновления саги %s: %w", sagaID, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCancelSagaNotFound
	}
	return nil
}

// GetBySagaID возвращает запись саги отмены.
func (r *cancelSagaRepository) GetBySagaID(ctx context.Context, sagaID string) (*domain.CancelSagaRecord, error) {
	var model CancelSagaModel
	err := r.db.WithContext(ctx).First(&model, "saga_id = ?", sagaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCancelSagaNotFound
		}
		return nil, fmt.Errorf("ошибка получения саги %s: %w", sagaID, err)
	}

	return model.toDomain(), nil
}
