package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense categories
const (
	ExpenseCategoryMaterials = "Materials"
	ExpenseCategorySalaries  = "Salaries"
	ExpenseCategoryUtilities = "Utilities"
	ExpenseCategoryOther     = "Other"
)

// Expense / ledger status constants
const (
	FinanceStatusPending = "Pending"
	FinanceStatusCleared = "Cleared"
)

// Ledger accounts and directions
const (
	LedgerAccountExpenses = "Expenses"
	LedgerAccountRevenue  = "Revenue"
	LedgerAccountCash     = "Cash"

	LedgerDirectionDebit  = "Debit"
	LedgerDirectionCredit = "Credit"
)

// Finance reference types linking records back to their trigger
const (
	FinanceRefMaterialOrder = "MATERIAL_ORDER"
	FinanceRefSalaryRun     = "SALARY_RUN"
	FinanceRefOrder         = "ORDER"
	FinanceRefManual        = "MANUAL"
)

// Expense is a cost entry. Once created only the status field may change.
type Expense struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExpenseNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"expense_id"` // EXP-NNN

	Category    string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`

	ReferenceType string     `gorm:"type:varchar(30);not null;default:'MANUAL';index" json:"reference_type"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index" json:"reference_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEntry is one side of a double-entry record created as a side
// effect of material deliveries, salary runs, invoice approvals and
// manual expense entry. Entries are append-only apart from status.
type LedgerEntry struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntryNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"entry_id"` // LED-NNN

	Account     string          `gorm:"type:varchar(50);not null;index" json:"account"`
	Direction   string          `gorm:"type:varchar(10);not null" json:"direction"` // Debit, Credit
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	Status      string          `gorm:"type:varchar(20);not null;default:'Cleared'" json:"status"`

	ReferenceType string     `gorm:"type:varchar(30);not null;index" json:"reference_type"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index" json:"reference_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
