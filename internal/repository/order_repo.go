package repository

import (
	"context"

	"printshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	Status     string
	CustomerID *uuid.UUID
	EmployeeID *uuid.UUID
	Page       int
	Limit      int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error)
	AppendTracking(ctx context.Context, entry *model.TrackingEntry) error
	AddUsage(ctx context.Context, usage *model.MaterialUsage) error
	ClearUsages(ctx context.Context, orderID uuid.UUID) error
	CountAssignments(ctx context.Context, employeeID uuid.UUID) (assigned, active, completed int64, err error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Save(order).Error
}

// Delete hard-removes an order. The early-state-only policy is enforced
// by the caller, not here.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Unscoped().Where("id = ?", id).Delete(&model.Order{}).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Usages").
		Preload("TrackingHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("tracking_entries.created_at ASC")
		}).
		Preload("Customer").
		Preload("AssignedEmployee").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Usages").
		Preload("TrackingHistory").
		Preload("Customer").
		First(&order, "order_no = ?", orderNo).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.EmployeeID != nil {
		db = db.Where("assigned_employee_id = ?", *filter.EmployeeID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Items").
		Preload("Items.Usages").
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) AppendTracking(ctx context.Context, entry *model.TrackingEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *orderRepository) AddUsage(ctx context.Context, usage *model.MaterialUsage) error {
	return GetDB(ctx, r.db).Create(usage).Error
}

// ClearUsages removes every usage record on every line item of an order.
func (r *orderRepository) ClearUsages(ctx context.Context, orderID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("order_item_id IN (?)",
			GetDB(ctx, r.db).Model(&model.OrderItem{}).Select("id").Where("order_id = ?", orderID)).
		Delete(&model.MaterialUsage{}).Error
}

// CountAssignments derives workload counters from live order state, used
// by the HR recount operation to repair counter drift.
func (r *orderRepository) CountAssignments(ctx context.Context, employeeID uuid.UUID) (assigned, active, completed int64, err error) {
	base := func() *gorm.DB {
		return GetDB(ctx, r.db).Model(&model.Order{}).Where("assigned_employee_id = ?", employeeID)
	}

	if err = base().Count(&assigned).Error; err != nil {
		return
	}
	if err = base().
		Where("status NOT IN ?", []string{model.OrderStatusCompleted, model.OrderStatusCancelled}).
		Count(&active).Error; err != nil {
		return
	}
	err = base().Where("status = ?", model.OrderStatusCompleted).Count(&completed).Error
	return
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
