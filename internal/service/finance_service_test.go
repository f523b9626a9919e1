package service

import (
	"context"
	"testing"
	"time"

	"printshop/internal/mocks"
	"printshop/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type financeServiceMocks struct {
	expenseRepo  *mocks.MockExpenseRepository
	ledgerRepo   *mocks.MockLedgerRepository
	invoiceRepo  *mocks.MockInvoiceRepository
	employeeRepo *mocks.MockEmployeeRepository
	counterRepo  *mocks.MockCounterRepository
	auditRepo    *mocks.MockAuditRepository
}

func newFinanceServiceForTest() (FinanceService, *financeServiceMocks) {
	m := &financeServiceMocks{
		expenseRepo:  &mocks.MockExpenseRepository{},
		ledgerRepo:   &mocks.MockLedgerRepository{},
		invoiceRepo:  &mocks.MockInvoiceRepository{},
		employeeRepo: &mocks.MockEmployeeRepository{},
		counterRepo:  &mocks.MockCounterRepository{},
		auditRepo:    &mocks.MockAuditRepository{},
	}
	svc := NewFinanceService(
		m.expenseRepo,
		m.ledgerRepo,
		m.invoiceRepo,
		m.employeeRepo,
		m.counterRepo,
		m.auditRepo,
		mocks.PassthroughTxManager{},
	)
	return svc, m
}

func TestRunSalaries_AggregatesActivePayroll(t *testing.T) {
	svc, m := newFinanceServiceForTest()

	employees := []model.Employee{
		{Name: "Ana", Salary: decimal.NewFromInt(2500)},
		{Name: "Bao", Salary: decimal.NewFromInt(1800)},
		{Name: "Chi", Salary: decimal.Zero}, // unconfigured salary is skipped
	}
	m.employeeRepo.On("ListActive", mock.Anything).Return(employees, nil)
	m.counterRepo.On("NextBusinessID", mock.Anything, "EXP").Return("EXP-010", nil)
	m.counterRepo.On("NextBusinessID", mock.Anything, "LED").Return("LED-020", nil)
	m.expenseRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Expense")).Run(func(args mock.Arguments) {
		expense := args.Get(1).(*model.Expense)
		assert.Equal(t, model.ExpenseCategorySalaries, expense.Category)
		assert.True(t, expense.Amount.Equal(decimal.NewFromInt(4300)))
	}).Return(nil)
	m.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.LedgerEntry")).Return(nil).Times(2)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.RunSalaries(context.Background(), "system")
	require.NoError(t, err)
	assert.Equal(t, 2, result.EmployeeCount)
	assert.True(t, result.TotalPaid.Equal(decimal.NewFromInt(4300)))
	assert.Equal(t, "EXP-010", result.ExpenseNo)
	m.ledgerRepo.AssertExpectations(t)
}

func TestRunSalaries_NoPayrollConfigured(t *testing.T) {
	svc, m := newFinanceServiceForTest()
	m.employeeRepo.On("ListActive", mock.Anything).Return([]model.Employee{{Name: "Chi"}}, nil)

	_, err := svc.RunSalaries(context.Background(), "system")
	assert.Error(t, err)
}

func TestSummary_NetProfit(t *testing.T) {
	svc, m := newFinanceServiceForTest()

	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 31, 23, 59, 59, 0, time.UTC)

	m.invoiceRepo.On("SumRevenue", mock.Anything, from, to).Return(decimal.NewFromInt(9000), nil)
	m.expenseRepo.On("SumByCategory", mock.Anything, from, to).Return(map[string]decimal.Decimal{
		model.ExpenseCategoryMaterials: decimal.NewFromInt(2000),
		model.ExpenseCategorySalaries:  decimal.NewFromInt(4300),
	}, nil)

	summary, err := svc.Summary(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(9000)))
	assert.True(t, summary.NetProfit.Equal(decimal.NewFromInt(2700)))
}

func TestCreateExpense_RejectsUnknownCategory(t *testing.T) {
	svc, _ := newFinanceServiceForTest()
	_, err := svc.CreateExpense(context.Background(), "system", CreateExpenseRequest{
		Category: "Entertainment",
		Amount:   "50",
	})
	assert.Error(t, err)
}

func TestCreateExpense_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newFinanceServiceForTest()
	_, err := svc.CreateExpense(context.Background(), "system", CreateExpenseRequest{
		Category: model.ExpenseCategoryOther,
		Amount:   "0",
	})
	assert.Error(t, err)
}
