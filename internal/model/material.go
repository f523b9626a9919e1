package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RawMaterial is a stocked production input (paper, ink, vinyl...).
// CurrentStock must never go negative; every write that would drive it
// below zero is rejected at the service layer.
type RawMaterial struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MaterialID string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"material_id"` // RM-NNN
	Name       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Category   string    `gorm:"type:varchar(100);index" json:"category"`
	Unit       string    `gorm:"type:varchar(30);not null;default:'sheets'" json:"unit"`

	CurrentStock      int             `gorm:"type:int;not null;default:0" json:"current_stock"`
	MinimumStockLevel int             `gorm:"type:int;not null;default:0" json:"minimum_stock_level"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`

	ImageURL    string `gorm:"type:text" json:"image_url,omitempty"`
	ImageFileID string `gorm:"type:varchar(255)" json:"image_file_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// LowStock reports whether the material has fallen to or below its
// reorder threshold.
func (m *RawMaterial) LowStock() bool {
	return m.CurrentStock <= m.MinimumStockLevel
}
