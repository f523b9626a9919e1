package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printshop/internal/model"
	"printshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrExpenseNotFound = errors.New("expense not found")

// --- DTOs ---

type CreateExpenseRequest struct {
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
}

// SalaryRunResult summarizes one payroll execution.
type SalaryRunResult struct {
	ExpenseNo     string          `json:"expense_id"`
	EmployeeCount int             `json:"employee_count"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
}

// FinanceSummary aggregates money movement over a period.
type FinanceSummary struct {
	From      time.Time                  `json:"from"`
	To        time.Time                  `json:"to"`
	Revenue   decimal.Decimal            `json:"revenue"`
	Expenses  map[string]decimal.Decimal `json:"expenses_by_category"`
	NetProfit decimal.Decimal            `json:"net_profit"`
}

// --- Interface ---

type FinanceService interface {
	CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (*model.Expense, error)
	UpdateExpenseStatus(ctx context.Context, id, status string) (*model.Expense, error)
	GetExpense(ctx context.Context, id string) (*model.Expense, error)
	ListExpenses(ctx context.Context, page, limit int, category string) ([]model.Expense, int64, error)
	ListLedger(ctx context.Context, page, limit int, account string) ([]model.LedgerEntry, int64, error)
	RunSalaries(ctx context.Context, userID string) (*SalaryRunResult, error)
	Summary(ctx context.Context, from, to time.Time) (*FinanceSummary, error)
}

type financeService struct {
	expenseRepo  repository.ExpenseRepository
	ledgerRepo   repository.LedgerRepository
	invoiceRepo  repository.InvoiceRepository
	employeeRepo repository.EmployeeRepository
	counterRepo  repository.CounterRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewFinanceService(
	expenseRepo repository.ExpenseRepository,
	ledgerRepo repository.LedgerRepository,
	invoiceRepo repository.InvoiceRepository,
	employeeRepo repository.EmployeeRepository,
	counterRepo repository.CounterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) FinanceService {
	return &financeService{
		expenseRepo:  expenseRepo,
		ledgerRepo:   ledgerRepo,
		invoiceRepo:  invoiceRepo,
		employeeRepo: employeeRepo,
		counterRepo:  counterRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func validExpenseCategory(category string) bool {
	switch category {
	case model.ExpenseCategoryMaterials, model.ExpenseCategorySalaries,
		model.ExpenseCategoryUtilities, model.ExpenseCategoryOther:
		return true
	}
	return false
}

func (s *financeService) CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (*model.Expense, error) {
	if !validExpenseCategory(req.Category) {
		return nil, fmt.Errorf("unknown expense category %q", req.Category)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}

	var expense model.Expense
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expenseNo, err := s.counterRepo.NextBusinessID(txCtx, "EXP")
		if err != nil {
			return fmt.Errorf("failed to allocate expense id: %w", err)
		}
		expense = model.Expense{
			ExpenseNo:     expenseNo,
			Category:      req.Category,
			Description:   req.Description,
			Amount:        amount,
			Status:        model.FinanceStatusPending,
			ReferenceType: model.FinanceRefManual,
		}
		if err := s.expenseRepo.Create(txCtx, &expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		if err := s.postLedgerPair(txCtx, amount, expense.Description, model.FinanceRefManual, &expense.ID); err != nil {
			return err
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateExpense,
			EntityID:   expense.ExpenseNo,
			EntityName: expense.Category,
			Details:    "{}",
		})
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *financeService) UpdateExpenseStatus(ctx context.Context, id, status string) (*model.Expense, error) {
	if status != model.FinanceStatusPending && status != model.FinanceStatusCleared {
		return nil, fmt.Errorf("unknown expense status %q", status)
	}

	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.UpdateStatus(ctx, expense.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update expense status: %w", err)
	}
	expense.Status = status
	return expense, nil
}

func (s *financeService) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrExpenseNotFound
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to fetch expense: %w", err)
	}
	return expense, nil
}

func (s *financeService) ListExpenses(ctx context.Context, page, limit int, category string) ([]model.Expense, int64, error) {
	return s.expenseRepo.List(ctx, page, limit, category)
}

func (s *financeService) ListLedger(ctx context.Context, page, limit int, account string) ([]model.LedgerEntry, int64, error) {
	return s.ledgerRepo.List(ctx, page, limit, account)
}

// RunSalaries posts one aggregate salary expense for all active
// employees, with the matching ledger pair, in a single transaction.
func (s *financeService) RunSalaries(ctx context.Context, userID string) (*SalaryRunResult, error) {
	employees, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	total := decimal.Zero
	count := 0
	for _, employee := range employees {
		if employee.Salary.LessThanOrEqual(decimal.Zero) {
			continue
		}
		total = total.Add(employee.Salary)
		count++
	}
	if count == 0 {
		return nil, errors.New("no active employees with a salary configured")
	}

	result := &SalaryRunResult{EmployeeCount: count, TotalPaid: total}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expenseNo, err := s.counterRepo.NextBusinessID(txCtx, "EXP")
		if err != nil {
			return fmt.Errorf("failed to allocate expense id: %w", err)
		}
		description := fmt.Sprintf("Salary run %s for %d employees", time.Now().Format("2006-01"), count)
		expense := model.Expense{
			ExpenseNo:     expenseNo,
			Category:      model.ExpenseCategorySalaries,
			Description:   description,
			Amount:        total,
			Status:        model.FinanceStatusCleared,
			ReferenceType: model.FinanceRefSalaryRun,
		}
		if err := s.expenseRepo.Create(txCtx, &expense); err != nil {
			return fmt.Errorf("failed to record salary expense: %w", err)
		}
		result.ExpenseNo = expense.ExpenseNo

		if err := s.postLedgerPair(txCtx, total, description, model.FinanceRefSalaryRun, &expense.ID); err != nil {
			return err
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionRunSalaries,
			EntityID:   expense.ExpenseNo,
			EntityName: model.ExpenseCategorySalaries,
			Details:    fmt.Sprintf(`{"employees":%d,"total":%q}`, count, total.StringFixed(2)),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *financeService) Summary(ctx context.Context, from, to time.Time) (*FinanceSummary, error) {
	revenue, err := s.invoiceRepo.SumRevenue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	expenses, err := s.expenseRepo.SumByCategory(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}

	totalExpenses := decimal.Zero
	for _, amount := range expenses {
		totalExpenses = totalExpenses.Add(amount)
	}

	return &FinanceSummary{
		From:      from,
		To:        to,
		Revenue:   revenue,
		Expenses:  expenses,
		NetProfit: revenue.Sub(totalExpenses),
	}, nil
}

func (s *financeService) postLedgerPair(txCtx context.Context, amount decimal.Decimal, description, refType string, refID *uuid.UUID) error {
	return postLedgerPair(txCtx, s.ledgerRepo, s.counterRepo, amount, description, refType, refID)
}

// postLedgerPair writes the Debit(Expenses)/Credit(Cash) pair every cost
// posting produces. Shared by manual expenses, salary runs and material
// deliveries.
func postLedgerPair(txCtx context.Context, ledgerRepo repository.LedgerRepository, counterRepo repository.CounterRepository, amount decimal.Decimal, description, refType string, refID *uuid.UUID) error {
	debitNo, err := counterRepo.NextBusinessID(txCtx, "LED")
	if err != nil {
		return fmt.Errorf("failed to allocate ledger id: %w", err)
	}
	if err := ledgerRepo.Create(txCtx, &model.LedgerEntry{
		EntryNo:       debitNo,
		Account:       model.LedgerAccountExpenses,
		Direction:     model.LedgerDirectionDebit,
		Amount:        amount,
		Description:   description,
		Status:        model.FinanceStatusCleared,
		ReferenceType: refType,
		ReferenceID:   refID,
	}); err != nil {
		return fmt.Errorf("failed to post expense debit: %w", err)
	}

	creditNo, err := counterRepo.NextBusinessID(txCtx, "LED")
	if err != nil {
		return fmt.Errorf("failed to allocate ledger id: %w", err)
	}
	if err := ledgerRepo.Create(txCtx, &model.LedgerEntry{
		EntryNo:       creditNo,
		Account:       model.LedgerAccountCash,
		Direction:     model.LedgerDirectionCredit,
		Amount:        amount,
		Description:   description,
		Status:        model.FinanceStatusCleared,
		ReferenceType: refType,
		ReferenceID:   refID,
	}); err != nil {
		return fmt.Errorf("failed to post cash credit: %w", err)
	}
	return nil
}
