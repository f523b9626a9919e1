package service

import (
	"context"
	"testing"

	"printshop/internal/config"
	"printshop/internal/mocks"
	"printshop/internal/model"
	ws "printshop/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type procurementServiceMocks struct {
	materialOrderRepo *mocks.MockMaterialOrderRepository
	materialRepo      *mocks.MockMaterialRepository
	expenseRepo       *mocks.MockExpenseRepository
	ledgerRepo        *mocks.MockLedgerRepository
	counterRepo       *mocks.MockCounterRepository
	auditRepo         *mocks.MockAuditRepository
}

func newProcurementServiceForTest() (ProcurementService, *procurementServiceMocks) {
	m := &procurementServiceMocks{
		materialOrderRepo: &mocks.MockMaterialOrderRepository{},
		materialRepo:      &mocks.MockMaterialRepository{},
		expenseRepo:       &mocks.MockExpenseRepository{},
		ledgerRepo:        &mocks.MockLedgerRepository{},
		counterRepo:       &mocks.MockCounterRepository{},
		auditRepo:         &mocks.MockAuditRepository{},
	}
	svc := NewProcurementService(
		m.materialOrderRepo,
		m.materialRepo,
		&mocks.MockSupplierRepository{},
		m.expenseRepo,
		m.ledgerRepo,
		m.counterRepo,
		m.auditRepo,
		mocks.PassthroughTxManager{},
		&mocks.MockMailer{},
		ws.NewHub(),
		&config.Config{},
	)
	return svc, m
}

func TestMarkDelivered_CreditsUsableStockAndPostsFinance(t *testing.T) {
	svc, m := newProcurementServiceForTest()

	material := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-001", Name: "Vinyl Banner Roll", CurrentStock: 20, MinimumStockLevel: 5}
	order := &model.MaterialOrder{
		ID:              uuid.New(),
		OrderNo:         "MO-001",
		MaterialID:      material.ID,
		QuantityOrdered: 100,
		UnitPrice:       decimal.NewFromFloat(2.50),
		TotalPrice:      decimal.NewFromInt(250),
		Status:          model.MaterialOrderStatusInTransit,
	}

	m.materialOrderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByIDForUpdate", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, material.ID, 110).Return(nil) // 20 + (100 - 10 damaged)
	m.materialOrderRepo.On("Update", mock.Anything, order).Return(nil)
	m.counterRepo.On("NextBusinessID", mock.Anything, "EXP").Return("EXP-001", nil)
	m.counterRepo.On("NextBusinessID", mock.Anything, "LED").Return("LED-001", nil)
	m.expenseRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Expense")).Run(func(args mock.Arguments) {
		expense := args.Get(1).(*model.Expense)
		assert.Equal(t, model.ExpenseCategoryMaterials, expense.Category)
		assert.Equal(t, model.FinanceStatusCleared, expense.Status)
		assert.True(t, expense.Amount.Equal(order.TotalPrice))
	}).Return(nil)
	m.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.LedgerEntry")).Return(nil).Times(2)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.MarkDelivered(context.Background(), uuid.New().String(), order.ID.String(), 10)
	require.NoError(t, err)
	assert.Equal(t, 90, result.StockAdded)
	assert.Equal(t, "EXP-001", result.ExpenseNo)
	assert.Equal(t, model.MaterialOrderStatusDelivered, result.Order.Status)
	assert.Equal(t, model.FinanceTransferTransferred, result.Order.FinanceTransferStatus)
	assert.NotNil(t, result.Order.DeliveryDate)

	m.materialRepo.AssertExpectations(t)
	m.ledgerRepo.AssertExpectations(t)
	m.expenseRepo.AssertExpectations(t)
}

func TestMarkDelivered_LedgerPairBalances(t *testing.T) {
	svc, m := newProcurementServiceForTest()

	material := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-002", Name: "Canvas Roll", CurrentStock: 0}
	order := &model.MaterialOrder{
		ID:              uuid.New(),
		OrderNo:         "MO-002",
		MaterialID:      material.ID,
		QuantityOrdered: 50,
		TotalPrice:      decimal.NewFromInt(600),
		Status:          model.MaterialOrderStatusOrdered,
	}

	var entries []model.LedgerEntry
	m.materialOrderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByIDForUpdate", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, material.ID, 50).Return(nil)
	m.materialOrderRepo.On("Update", mock.Anything, order).Return(nil)
	m.counterRepo.On("NextBusinessID", mock.Anything, "EXP").Return("EXP-002", nil)
	m.counterRepo.On("NextBusinessID", mock.Anything, "LED").Return("LED-002", nil)
	m.expenseRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Expense")).Return(nil)
	m.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.LedgerEntry")).Run(func(args mock.Arguments) {
		entries = append(entries, *args.Get(1).(*model.LedgerEntry))
	}).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	_, err := svc.MarkDelivered(context.Background(), uuid.New().String(), order.ID.String(), 0)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, model.LedgerAccountExpenses, entries[0].Account)
	assert.Equal(t, model.LedgerDirectionDebit, entries[0].Direction)
	assert.Equal(t, model.LedgerAccountCash, entries[1].Account)
	assert.Equal(t, model.LedgerDirectionCredit, entries[1].Direction)
	assert.True(t, entries[0].Amount.Equal(entries[1].Amount))
	assert.True(t, entries[0].Amount.Equal(order.TotalPrice))
}

func TestMarkDelivered_RejectsDoubleDelivery(t *testing.T) {
	svc, m := newProcurementServiceForTest()

	order := &model.MaterialOrder{ID: uuid.New(), OrderNo: "MO-003", Status: model.MaterialOrderStatusDelivered}
	m.materialOrderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.MarkDelivered(context.Background(), uuid.New().String(), order.ID.String(), 0)
	assert.ErrorIs(t, err, ErrAlreadyDelivered)
}

func TestMarkDelivered_RejectsDamagedBeyondOrdered(t *testing.T) {
	svc, m := newProcurementServiceForTest()

	order := &model.MaterialOrder{
		ID:              uuid.New(),
		OrderNo:         "MO-004",
		QuantityOrdered: 10,
		Status:          model.MaterialOrderStatusOrdered,
	}
	m.materialOrderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.MarkDelivered(context.Background(), uuid.New().String(), order.ID.String(), 11)
	assert.ErrorIs(t, err, ErrDamagedExceedsOrdered)

	_, err = svc.MarkDelivered(context.Background(), uuid.New().String(), order.ID.String(), -1)
	assert.ErrorIs(t, err, ErrDamagedExceedsOrdered)
}

func TestMarkDelivered_RejectsCancelledOrder(t *testing.T) {
	svc, m := newProcurementServiceForTest()

	order := &model.MaterialOrder{ID: uuid.New(), OrderNo: "MO-005", Status: model.MaterialOrderStatusCancelled}
	m.materialOrderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.MarkDelivered(context.Background(), uuid.New().String(), order.ID.String(), 0)
	assert.Error(t, err)
}
