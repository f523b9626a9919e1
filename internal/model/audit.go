package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions for administrative mutations
const (
	ActionCreateMaterial      = "CREATE_MATERIAL"
	ActionUpdateMaterial      = "UPDATE_MATERIAL"
	ActionDeleteMaterial      = "DELETE_MATERIAL"
	ActionAdjustStock         = "ADJUST_STOCK"
	ActionCreateOrder         = "CREATE_ORDER"
	ActionDeleteOrder         = "DELETE_ORDER"
	ActionOrderStatusChange   = "ORDER_STATUS_CHANGE"
	ActionApproveReceipt      = "APPROVE_RECEIPT"
	ActionRejectReceipt       = "REJECT_RECEIPT"
	ActionCreateMaterialOrder = "CREATE_MATERIAL_ORDER"
	ActionMarkDelivered       = "MARK_DELIVERED"
	ActionCreateExpense       = "CREATE_EXPENSE"
	ActionRunSalaries         = "RUN_SALARIES"
	ActionCreateEmployee      = "CREATE_EMPLOYEE"
)

// AuditLog tracks who did what and when for critical system changes.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
