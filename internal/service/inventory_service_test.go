package service

import (
	"context"
	"testing"

	"printshop/internal/mocks"
	"printshop/internal/model"
	ws "printshop/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type inventoryServiceMocks struct {
	materialRepo *mocks.MockMaterialRepository
	auditRepo    *mocks.MockAuditRepository
	hub          *ws.Hub
}

func newInventoryServiceForTest() (InventoryService, *inventoryServiceMocks) {
	m := &inventoryServiceMocks{
		materialRepo: &mocks.MockMaterialRepository{},
		auditRepo:    &mocks.MockAuditRepository{},
		hub:          ws.NewHub(),
	}
	svc := NewInventoryService(
		m.materialRepo,
		&mocks.MockCounterRepository{},
		m.auditRepo,
		mocks.PassthroughTxManager{},
		nil,
		m.hub,
	)
	return svc, m
}

func TestAdjustStock_RejectsDeltaPastZero(t *testing.T) {
	svc, m := newInventoryServiceForTest()

	material := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-001", Name: "A4 Standard White Paper", CurrentStock: 5, MinimumStockLevel: 10}
	m.materialRepo.On("FindByID", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("FindByIDForUpdate", mock.Anything, material.ID).Return(material, nil)

	_, err := svc.AdjustStock(context.Background(), uuid.New().String(), material.ID.String(), StockAdjustment{
		Delta:  -6,
		Reason: "damaged batch",
	})
	assert.ErrorIs(t, err, ErrNegativeStock)
	m.materialRepo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	m.auditRepo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestAdjustStock_AppliesDeltaAndAudits(t *testing.T) {
	svc, m := newInventoryServiceForTest()

	material := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-002", Name: "Black Ink Cartridge", CurrentStock: 8, MinimumStockLevel: 2}
	m.materialRepo.On("FindByID", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("FindByIDForUpdate", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, material.ID, 3).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	updated, err := svc.AdjustStock(context.Background(), uuid.New().String(), material.ID.String(), StockAdjustment{
		Delta:  -5,
		Reason: "stocktake correction",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.CurrentStock)
	m.materialRepo.AssertExpectations(t)
	assert.Empty(t, drainEvents(t, m.hub))
}

func TestAdjustStock_PublishesLowStockAlert(t *testing.T) {
	svc, m := newInventoryServiceForTest()

	material := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-003", Name: "Vinyl Banner Roll", CurrentStock: 12, MinimumStockLevel: 10}
	m.materialRepo.On("FindByID", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("FindByIDForUpdate", mock.Anything, material.ID).Return(material, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, material.ID, 2).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	updated, err := svc.AdjustStock(context.Background(), uuid.New().String(), material.ID.String(), StockAdjustment{
		Delta:  -10,
		Reason: "rush job",
	})
	require.NoError(t, err)
	assert.True(t, updated.LowStock())

	events := drainEvents(t, m.hub)
	require.Len(t, events, 1)
	assert.Equal(t, ws.EventLowStock, events[0].Event)
	assert.Equal(t, material.Name, events[0].Data["material"])
	assert.Equal(t, float64(2), events[0].Data["current_stock"])
}
