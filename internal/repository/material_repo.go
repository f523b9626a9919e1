package repository

import (
	"context"

	"printshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository interface {
	Create(ctx context.Context, material *model.RawMaterial) error
	Update(ctx context.Context, material *model.RawMaterial) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RawMaterial, error)
	FindByMaterialID(ctx context.Context, materialID string) (*model.RawMaterial, error)
	FindByName(ctx context.Context, name string) (*model.RawMaterial, error)
	FindByNameForUpdate(ctx context.Context, name string) (*model.RawMaterial, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RawMaterial, error)
	List(ctx context.Context, page, limit int, search, category string) ([]model.RawMaterial, int64, error)
	ListLowStock(ctx context.Context) ([]model.RawMaterial, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
}

type materialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(ctx context.Context, material *model.RawMaterial) error {
	return GetDB(ctx, r.db).Create(material).Error
}

func (r *materialRepository) Update(ctx context.Context, material *model.RawMaterial) error {
	return GetDB(ctx, r.db).Save(material).Error
}

func (r *materialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.RawMaterial{}).Error
}

func (r *materialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RawMaterial, error) {
	var material model.RawMaterial
	if err := GetDB(ctx, r.db).First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) FindByMaterialID(ctx context.Context, materialID string) (*model.RawMaterial, error) {
	var material model.RawMaterial
	if err := GetDB(ctx, r.db).First(&material, "material_id = ?", materialID).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) FindByName(ctx context.Context, name string) (*model.RawMaterial, error) {
	var material model.RawMaterial
	if err := GetDB(ctx, r.db).First(&material, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// FindByNameForUpdate locks the material row for the remainder of the
// transaction. Stock checks and decrements must go through this.
func (r *materialRepository) FindByNameForUpdate(ctx context.Context, name string) (*model.RawMaterial, error) {
	var material model.RawMaterial
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RawMaterial, error) {
	var material model.RawMaterial
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) List(ctx context.Context, page, limit int, search, category string) ([]model.RawMaterial, int64, error) {
	var materials []model.RawMaterial
	var total int64

	db := GetDB(ctx, r.db).Model(&model.RawMaterial{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&materials).Error; err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

func (r *materialRepository) ListLowStock(ctx context.Context) ([]model.RawMaterial, error) {
	var materials []model.RawMaterial
	if err := GetDB(ctx, r.db).
		Where("current_stock <= minimum_stock_level").
		Order("current_stock asc").
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *materialRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.RawMaterial{}).Where("id = ?", id).Update("current_stock", stock).Error
}
