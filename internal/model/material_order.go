package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialOrderStatus constants
const (
	MaterialOrderStatusOrdered   = "Ordered"
	MaterialOrderStatusInTransit = "In Transit"
	MaterialOrderStatusDelivered = "Delivered"
	MaterialOrderStatusCancelled = "Cancelled"
)

// FinanceTransferStatus constants
const (
	FinanceTransferPending     = "Pending"
	FinanceTransferTransferred = "Transferred"
)

// MaterialOrder is a purchase order placed with a supplier for a single
// raw material. TotalPrice is recomputed whenever quantity or unit price
// changes, and DamagedItemsAmount may never exceed QuantityOrdered.
type MaterialOrder struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_id"` // MO-NNN

	SupplierID uuid.UUID    `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier   *Supplier    `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	MaterialID uuid.UUID    `gorm:"type:uuid;not null;index" json:"material_id"`
	Material   *RawMaterial `gorm:"foreignKey:MaterialID" json:"material,omitempty"`

	QuantityOrdered    int             `gorm:"type:int;not null" json:"quantity_ordered"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	DamagedItemsAmount int             `gorm:"type:int;not null;default:0" json:"damaged_items_amount"`

	Status                string `gorm:"type:varchar(20);not null;default:'Ordered';index" json:"status"`
	FinanceTransferStatus string `gorm:"type:varchar(20);not null;default:'Pending'" json:"finance_transfer_status"`

	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Note         string     `gorm:"type:text" json:"note"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UsableQuantity is what actually lands in stock on delivery.
func (o *MaterialOrder) UsableQuantity() int {
	return o.QuantityOrdered - o.DamagedItemsAmount
}
