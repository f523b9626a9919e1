package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Availability constants
const (
	AvailabilityAvailable = "Available"
	AvailabilityBusy      = "Busy"
)

// WorkloadAction constants for Employee counter updates
const (
	WorkloadAssign   = "assign"
	WorkloadComplete = "complete"
	WorkloadUnassign = "unassign"
)

// Employee is a staff record with stored workload counters. The counters
// are mutated only through the HR service's workload actions, in the same
// transaction as the paired order-assignment write.
type Employee struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"employee_id"` // EMP-NNN
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`                 // linked login account, if any
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Email      string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone      string          `gorm:"type:varchar(50)" json:"phone"`
	Position   string          `gorm:"type:varchar(100)" json:"position"`
	Department string          `gorm:"type:varchar(100);index" json:"department"`
	Salary     decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"salary"`

	AssignedOrders  int    `gorm:"type:int;not null;default:0" json:"assigned_orders"`
	ActiveOrders    int    `gorm:"type:int;not null;default:0" json:"active_orders"`
	CompletedOrders int    `gorm:"type:int;not null;default:0" json:"completed_orders"`
	Availability    string `gorm:"type:varchar(20);not null;default:'Available'" json:"availability"`

	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EmployeeRefKind distinguishes how an employee was referenced by the caller.
type EmployeeRefKind int

const (
	// EmployeeRefCanonical references an employee by its EMP- business id.
	EmployeeRefCanonical EmployeeRefKind = iota
	// EmployeeRefUserLinked references an employee indirectly through a
	// login account (legacy USR- ids and raw user uuids).
	EmployeeRefUserLinked
)

// EmployeeRef is the parsed form of an employee reference. Handlers parse
// incoming ids exactly once; services never re-inspect string prefixes.
type EmployeeRef struct {
	Kind   EmployeeRefKind
	Code   string    // set when Kind == EmployeeRefCanonical
	UserID uuid.UUID // set when Kind == EmployeeRefUserLinked
}

// ParseEmployeeRef resolves an employee identifier string into a tagged
// reference. Accepted forms: "EMP-NNN", "USR-<uuid>", or a bare user uuid.
func ParseEmployeeRef(raw string) (EmployeeRef, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "EMP-"):
		return EmployeeRef{Kind: EmployeeRefCanonical, Code: raw}, nil
	case strings.HasPrefix(raw, "USR-"):
		id, err := uuid.Parse(strings.TrimPrefix(raw, "USR-"))
		if err != nil {
			return EmployeeRef{}, fmt.Errorf("invalid user-linked employee ref %q: %w", raw, err)
		}
		return EmployeeRef{Kind: EmployeeRefUserLinked, UserID: id}, nil
	default:
		id, err := uuid.Parse(raw)
		if err != nil {
			return EmployeeRef{}, fmt.Errorf("unrecognized employee ref %q", raw)
		}
		return EmployeeRef{Kind: EmployeeRefUserLinked, UserID: id}, nil
	}
}
