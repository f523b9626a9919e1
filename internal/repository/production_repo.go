package repository

import (
	"context"

	"printshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductionRepository interface {
	Create(ctx context.Context, job *model.ProductionJob) error
	Update(ctx context.Context, job *model.ProductionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionJob, error)
	List(ctx context.Context, page, limit int, status string) ([]model.ProductionJob, int64, error)
}

type productionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) Create(ctx context.Context, job *model.ProductionJob) error {
	return GetDB(ctx, r.db).Create(job).Error
}

func (r *productionRepository) Update(ctx context.Context, job *model.ProductionJob) error {
	return GetDB(ctx, r.db).Save(job).Error
}

func (r *productionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionJob, error) {
	var job model.ProductionJob
	if err := GetDB(ctx, r.db).
		Preload("Order").
		Preload("AssignedEmployee").
		First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *productionRepository) List(ctx context.Context, page, limit int, status string) ([]model.ProductionJob, int64, error) {
	var jobs []model.ProductionJob
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ProductionJob{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Order").
		Preload("AssignedEmployee").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}
