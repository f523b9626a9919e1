package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery status constants
const (
	DeliveryStatusScheduled = "Scheduled"
	DeliveryStatusOut       = "Out_for_Delivery"
	DeliveryStatusDelivered = "Delivered"
	DeliveryStatusFailed    = "Failed"
)

// Delivery tracks the shipment of a finished order. Completing a
// delivery drives the linked order through its own state machine.
type Delivery struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DeliveryNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"delivery_id"` // DEL-NNN

	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Order   *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`

	DriverID *uuid.UUID `gorm:"type:uuid;index" json:"driver_id,omitempty"`
	Driver   *Employee  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	Address     string     `gorm:"type:text;not null" json:"address"`
	Status      string     `gorm:"type:varchar(30);not null;default:'Scheduled';index" json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Note        string     `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
