package repository

import (
	"context"

	"printshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialOrderRepository interface {
	Create(ctx context.Context, order *model.MaterialOrder) error
	Update(ctx context.Context, order *model.MaterialOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaterialOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.MaterialOrder, error)
	List(ctx context.Context, page, limit int, status string) ([]model.MaterialOrder, int64, error)
}

type materialOrderRepository struct {
	db *gorm.DB
}

func NewMaterialOrderRepository(db *gorm.DB) MaterialOrderRepository {
	return &materialOrderRepository{db: db}
}

func (r *materialOrderRepository) Create(ctx context.Context, order *model.MaterialOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *materialOrderRepository) Update(ctx context.Context, order *model.MaterialOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *materialOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MaterialOrder, error) {
	var order model.MaterialOrder
	if err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Material").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the purchase order row so mark-delivered
// cannot run twice concurrently.
func (r *materialOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.MaterialOrder, error) {
	var order model.MaterialOrder
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *materialOrderRepository) List(ctx context.Context, page, limit int, status string) ([]model.MaterialOrder, int64, error) {
	var orders []model.MaterialOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.MaterialOrder{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Supplier").
		Preload("Material").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
