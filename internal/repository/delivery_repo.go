package repository

import (
	"context"

	"printshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	Update(ctx context.Context, delivery *model.Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Delivery, int64, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *model.Delivery) error {
	return GetDB(ctx, r.db).Create(delivery).Error
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *model.Delivery) error {
	return GetDB(ctx, r.db).Save(delivery).Error
}

func (r *deliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := GetDB(ctx, r.db).
		Preload("Order").
		Preload("Driver").
		First(&delivery, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) List(ctx context.Context, page, limit int, status string) ([]model.Delivery, int64, error) {
	var deliveries []model.Delivery
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Delivery{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Order").
		Preload("Driver").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&deliveries).Error; err != nil {
		return nil, 0, err
	}

	return deliveries, total, nil
}
