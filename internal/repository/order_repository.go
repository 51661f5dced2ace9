// Package repository содержит доступ к данным Order Service.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Grupo-MACC/Order/internal/domain"
)

// OrderRepository определяет операции над таблицей fabrication_order.
// Каждая операция — одна транзакция.
type OrderRepository interface {
	// Create сохраняет новый заказ и заполняет его ID.
	// Пустой заказ (0 деталей) отклоняется.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID возвращает заказ или domain.ErrOrderNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// List возвращает все заказы (администратор).
	List(ctx context.Context) ([]*domain.Order, error)

	// ListByClient возвращает заказы одного пользователя.
	ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error)

	// UpdateCreationStatus устанавливает статус фазы оформления.
	// Возвращает заказ после обновления или domain.ErrOrderNotFound.
	UpdateCreationStatus(ctx context.Context, id int64, status domain.CreationStatus) (*domain.Order, error)

	// UpdateFabricationStatus устанавливает статус фазы производства.
	UpdateFabricationStatus(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, error)

	// AdvanceFabrication продвигает фазу производства, если текущее
	// состояние это допускает: терминальная фаза и Canceling не
	// двигаются, выход из NotStarted разрешён только подтверждённому
	// заказу. Возвращает заказ ДО обновления и признак того, что
	// обновление произошло. Чтение и запись выполняются в одной
	// транзакции — это гарантия exactly-once для order.fabricated.
	AdvanceFabrication(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, bool, error)

	// AdvanceDelivery продвигает фазу доставки. Выход из NotStarted
	// разрешён только после завершения производства. Семантика
	// возврата как у AdvanceFabrication.
	AdvanceDelivery(ctx context.Context, id int64, status domain.DeliveryStatus) (*domain.Order, bool, error)

	// Delete физически удаляет заказ (административная операция).
	Delete(ctx context.Context, id int64) error
}

// OrderModel — GORM модель таблицы fabrication_order.
// Отделена от доменной сущности.
type OrderModel struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID          int64     `gorm:"column:client_id;not null;index"`
	Description       string    `gorm:"column:description;type:text"`
	Address           string    `gorm:"column:address;type:varchar(255)"`
	PiecesA           int       `gorm:"column:pieces_a;not null"`
	PiecesB           int       `gorm:"column:pieces_b;not null"`
	NumberOfPieces    int       `gorm:"column:number_of_pieces;not null"`
	CreationStatus    string    `gorm:"column:creation_status;type:varchar(32);not null"`
	FabricationStatus string    `gorm:"column:fabrication_status;type:varchar(32);not null"`
	DeliveryStatus    string    `gorm:"column:delivery_status;type:varchar(32);not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (OrderModel) TableName() string {
	return "fabrication_order"
}

// toDomain конвертирует GORM модель в доменную сущность.
func (m *OrderModel) toDomain() *domain.Order {
	return &domain.Order{
		ID:                m.ID,
		ClientID:          m.ClientID,
		Description:       m.Description,
		Address:           m.Address,
		PiecesA:           m.PiecesA,
		PiecesB:           m.PiecesB,
		NumberOfPieces:    m.NumberOfPieces,
		CreationStatus:    domain.CreationStatus(m.CreationStatus),
		FabricationStatus: domain.FabricationStatus(m.FabricationStatus),
		DeliveryStatus:    domain.DeliveryStatus(m.DeliveryStatus),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// orderModelFromDomain конвертирует доменную сущность в GORM модель.
func orderModelFromDomain(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:                o.ID,
		ClientID:          o.ClientID,
		Description:       o.Description,
		Address:           o.Address,
		PiecesA:           o.PiecesA,
		PiecesB:           o.PiecesB,
		NumberOfPieces:    o.NumberOfPieces,
		CreationStatus:    string(o.CreationStatus),
		FabricationStatus: string(o.FabricationStatus),
		DeliveryStatus:    string(o.DeliveryStatus),
	}
}

// orderRepository — GORM реализация OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт репозиторий заказов.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create сохраняет новый заказ.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	model := orderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает заказ по ID.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка получения заказа %d: %w", id, err)
	}

	return model.toDomain(), nil
}

// List возвращает все заказы в порядке создания.
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}

	return toDomainList(models), nil
}

// ListByClient возвращает заказы пользователя.
func (r *orderRepository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов пользователя %d: %w", clientID, err)
	}

	return toDomainList(models), nil
}

func toDomainList(models []OrderModel) []*domain.Order {
	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}
	return orders
}

// UpdateCreationStatus устанавливает статус фазы оформления.
func (r *orderRepository) UpdateCreationStatus(ctx context.Context, id int64, status domain.CreationStatus) (*domain.Order, error) {
	return r.updatePhase(ctx, id, "creation_status", string(status))
}

// UpdateFabricationStatus устанавливает статус фазы производства.
func (r *orderRepository) UpdateFabricationStatus(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, error) {
	return r.updatePhase(ctx, id, "fabrication_status", string(status))
}

// updatePhase обновляет ровно одно поле фазы и возвращает post-image.
// Межфазные инварианты здесь не проверяются — за них отвечают саги.
func (r *orderRepository) updatePhase(ctx context.Context, id int64, column, value string) (*domain.Order, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return nil, fmt.Errorf("ошибка обновления %s заказа %d: %w", column, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrOrderNotFound
	}

	return r.GetByID(ctx, id)
}

// AdvanceFabrication продвигает фазу производства с защитой от дублей.
// Чтение предыдущего статуса и запись нового — одна транзакция.
func (r *orderRepository) AdvanceFabrication(ctx context.Context, id int64, status domain.FabricationStatus) (*domain.Order, bool, error) {
	var prev *domain.Order
	advanced := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model OrderModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("ошибка чтения заказа %d: %w", id, err)
		}

		prev = model.toDomain()

		// Терминальная фаза производства не двигается: дубликат или
		// поздно пришедшее событие.
		if prev.FabricationStatus.IsTerminal() {
			return nil
		}

		// Canceling блокирует события Warehouse до исхода саги отмены:
		// поздний "completed" не воскресит отменяемый заказ, поздний
		// "working" не откроет отмену заново.
		if prev.FabricationStatus == domain.FabricationCanceling {
			return nil
		}

		// Производство стартует только у подтверждённого заказа.
		if prev.FabricationStatus == domain.FabricationNotStarted &&
			prev.CreationStatus != domain.CreationConfirmed {
			return nil
		}

		result := tx.Model(&OrderModel{}).
			Where("id = ?", id).
			Update("fabrication_status", string(status))
		if result.Error != nil {
			return fmt.Errorf("ошибка обновления fabrication_status заказа %d: %w", id, result.Error)
		}

		advanced = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return prev, advanced, nil
}

// AdvanceDelivery продвигает фазу доставки в одной транзакции с чтением
// pre-image. Доставка не начинается, пока производство не завершено.
func (r *orderRepository) AdvanceDelivery(ctx context.Context, id int64, status domain.DeliveryStatus) (*domain.Order, bool, error) {
	var prev *domain.Order
	advanced := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model OrderModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("ошибка чтения заказа %d: %w", id, err)
		}

		prev = model.toDomain()

		if prev.DeliveryStatus == domain.DeliveryNotStarted &&
			prev.FabricationStatus != domain.FabricationCompleted {
			return nil
		}

		result := tx.Model(&OrderModel{}).
			Where("id = ?", id).
			Update("delivery_status", string(status))
		if result.Error != nil {
			return fmt.Errorf("ошибка обновления delivery_status заказа %d: %w", id, result.Error)
		}

		advanced = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return prev, advanced, nil
}

// Delete физически удаляет заказ.
func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&OrderModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("ошибка удаления заказа %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
