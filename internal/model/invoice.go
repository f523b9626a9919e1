package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status constants
const (
	InvoiceStatusIssued = "Issued"
	InvoiceStatusPaid   = "Paid"
	InvoiceStatusVoid   = "Void"
)

// Invoice is the billing document generated when an order is confirmed.
// TotalAmount = Subtotal + TaxAmount - DiscountAmount.
type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"` // INV-NNN

	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	Order      *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`

	Status string `gorm:"type:varchar(20);not null;default:'Issued';index" json:"status"`

	PDFURL     string `gorm:"type:text" json:"pdf_url,omitempty"`
	EmailSent  bool   `gorm:"default:false" json:"email_sent"`
	EmailError string `gorm:"type:text" json:"email_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
