package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is an ordering party. Referenced by Orders and Invoices.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"customer_id"` // CUS-NNN

	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);index" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Company string `gorm:"type:varchar(255)" json:"company"`
	Address string `gorm:"type:text" json:"address"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
