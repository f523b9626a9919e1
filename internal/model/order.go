package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus constants. The happy path is linear; any non-terminal
// status may jump to Cancelled.
const (
	OrderStatusNew              = "New"
	OrderStatusPending          = "Pending" // legacy alias for New kept for older clients
	OrderStatusQuoteRequested   = "Quote_Requested"
	OrderStatusQuoteSent        = "Quote_Sent"
	OrderStatusQuoteApproved    = "Quote_Approved"
	OrderStatusConfirmed        = "Confirmed"
	OrderStatusInProduction     = "In_Production"
	OrderStatusQualityCheck     = "Quality_Check"
	OrderStatusReadyForPickup   = "Ready_for_Pickup"
	OrderStatusReadyForDelivery = "Ready_for_Delivery"
	OrderStatusOutForDelivery   = "Out_for_Delivery"
	OrderStatusDelivered        = "Delivered"
	OrderStatusCompleted        = "Completed"
	OrderStatusCancelled        = "Cancelled"
)

// PaymentStatus constants
const (
	PaymentStatusUnpaid   = "Unpaid"
	PaymentStatusPaid     = "Paid"
	PaymentStatusRefunded = "Refunded"
)

// Order is a customer print order. The business key is OrderNo
// (ORD-NNN); the uuid primary key stays internal.
type Order struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNo    string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Status        string `gorm:"type:varchar(30);not null;default:'New';index" json:"status"`
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'Unpaid'" json:"payment_status"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"final_amount"` // subtotal + tax - discount

	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TrackingHistory []TrackingEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"tracking_history"`

	AssignedEmployeeID   *uuid.UUID `gorm:"type:uuid;index" json:"assigned_employee_id"`
	AssignedEmployee     *Employee  `gorm:"foreignKey:AssignedEmployeeID" json:"assigned_employee,omitempty"`
	AssignedEmployeeName string     `gorm:"type:varchar(255)" json:"assigned_employee_name,omitempty"`
	AssignedAt           *time.Time `json:"assigned_at,omitempty"`

	ReceiptURL        string     `gorm:"type:text" json:"receipt_url,omitempty"`
	ReceiptFileID     string     `gorm:"type:varchar(255)" json:"receipt_file_id,omitempty"`
	ReceiptVerified   bool       `gorm:"default:false" json:"receipt_verified"`
	ReceiptUploadedAt *time.Time `json:"receipt_uploaded_at,omitempty"`

	InvoiceID *uuid.UUID `gorm:"type:uuid" json:"invoice_id,omitempty"`

	Note      string         `gorm:"type:text" json:"note"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is a single ordered line: product, quantity, price and the
// free-form production specification (material label, size, colour mode).
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductType string          `gorm:"type:varchar(100)" json:"product_type"` // business-card, flyer, banner, poster...
	Quantity    int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`

	MaterialLabel string `gorm:"type:varchar(255)" json:"material_label"` // customer-facing material name
	Size          string `gorm:"type:varchar(50)" json:"size"`            // A4, A3, A2...
	ColorMode     string `gorm:"type:varchar(50)" json:"color_mode"`      // Full Color, Black & White

	Usages []MaterialUsage `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE" json:"material_usages"`
}

// MaterialUsage records how much of a raw material was consumed to
// produce one line item. The material is referenced by its business id,
// not by ownership.
type MaterialUsage struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderItemID  uuid.UUID `gorm:"type:uuid;not null;index" json:"order_item_id"`
	MaterialID   string    `gorm:"type:varchar(30);not null;index" json:"material_id"` // RawMaterial business id (RM-NNN)
	MaterialName string    `gorm:"type:varchar(255);not null" json:"material_name"`
	QuantityUsed int       `gorm:"type:int;not null" json:"quantity_used"`
	Unit         string    `gorm:"type:varchar(30)" json:"unit"`
	CreatedAt    time.Time `json:"created_at"`
}

// TrackingEntry is one row of an order's append-only status audit log.
// Entries are never updated or deleted once written.
type TrackingEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Status    string    `gorm:"type:varchar(30);not null" json:"status"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}
