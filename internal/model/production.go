package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductionJob status constants
const (
	ProductionStatusQueued     = "Queued"
	ProductionStatusInProgress = "In_Progress"
	ProductionStatusCompleted  = "Completed"
)

// ProductionJob schedules the shop-floor work for an order. Completing a
// job moves the order from In_Production to Quality_Check.
type ProductionJob struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"job_id"` // JOB-NNN

	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Order   *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`

	AssignedEmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_employee_id,omitempty"`
	AssignedEmployee   *Employee  `gorm:"foreignKey:AssignedEmployeeID" json:"assigned_employee,omitempty"`

	Status      string     `gorm:"type:varchar(30);not null;default:'Queued';index" json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Note        string     `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
