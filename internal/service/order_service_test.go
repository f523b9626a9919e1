package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"printshop/internal/mocks"
	"printshop/internal/model"
	ws "printshop/internal/websocket"
	"printshop/pkg/drive"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderServiceMocks struct {
	orderRepo    *mocks.MockOrderRepository
	materialRepo *mocks.MockMaterialRepository
	employeeRepo *mocks.MockEmployeeRepository
	counterRepo  *mocks.MockCounterRepository
	auditRepo    *mocks.MockAuditRepository
	billing      *mocks.MockBillingService
	hub          *ws.Hub
}

func newOrderServiceForTest() (OrderService, *orderServiceMocks) {
	return newOrderServiceWithDrive(nil)
}

func newOrderServiceWithDrive(driveClient *drive.Client) (OrderService, *orderServiceMocks) {
	m := &orderServiceMocks{
		orderRepo:    &mocks.MockOrderRepository{},
		materialRepo: &mocks.MockMaterialRepository{},
		employeeRepo: &mocks.MockEmployeeRepository{},
		counterRepo:  &mocks.MockCounterRepository{},
		auditRepo:    &mocks.MockAuditRepository{},
		billing:      &mocks.MockBillingService{},
		hub:          ws.NewHub(),
	}
	svc := NewOrderService(
		m.orderRepo,
		m.materialRepo,
		m.employeeRepo,
		&mocks.MockCustomerRepository{},
		m.counterRepo,
		m.auditRepo,
		mocks.PassthroughTxManager{},
		m.billing,
		driveClient,
		m.hub,
	)
	return svc, m
}

// drainEvents empties the hub's buffered broadcast queue. No dispatcher
// runs in tests, so published events wait there in order.
func drainEvents(t *testing.T, hub *ws.Hub) []ws.Event {
	t.Helper()
	var events []ws.Event
	for {
		select {
		case payload := <-hub.Broadcast:
			var event ws.Event
			require.NoError(t, json.Unmarshal(payload, &event))
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	svc, m := newOrderServiceForTest()
	order := &model.Order{ID: uuid.New(), OrderNo: "ORD-001", Status: model.OrderStatusDelivered}
	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusInProduction,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_RejectsCancelAfterCompletion(t *testing.T) {
	svc, m := newOrderServiceForTest()
	order := &model.Order{ID: uuid.New(), OrderNo: "ORD-002", Status: model.OrderStatusCompleted}
	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusCancelled,
	})
	assert.ErrorIs(t, err, ErrCancelNotAllowed)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newOrderServiceForTest()
	_, err := svc.UpdateStatus(context.Background(), uuid.New().String(), uuid.New().String(), UpdateStatusRequest{
		Status: "Archived",
	})
	assert.Error(t, err)
}

func TestUpdateStatus_FirstMoveRecordsMaterialUsage(t *testing.T) {
	svc, m := newOrderServiceForTest()

	order := &model.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-003",
		Status:  model.OrderStatusNew,
		Items: []model.OrderItem{{
			ID:            uuid.New(),
			ProductName:   "Event flyers",
			ProductType:   "flyer",
			Quantity:      100,
			MaterialLabel: "Standard Paper (80gsm)",
			Size:          "A4",
			ColorMode:     "Black & White",
		}},
	}
	paper := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-001", Name: "A4 Standard White Paper", CurrentStock: 500, MinimumStockLevel: 50}
	ink := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-002", Name: "Black Ink Cartridge", CurrentStock: 10, MinimumStockLevel: 2}

	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, paper.Name).Return(paper, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, ink.Name).Return(ink, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, paper.ID, 390).Return(nil) // 500 - 110 with waste
	m.materialRepo.On("UpdateStock", mock.Anything, ink.ID, 9).Return(nil)
	m.orderRepo.On("AddUsage", mock.Anything, mock.AnythingOfType("*model.MaterialUsage")).Return(nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, result.Order.Status)
	assert.Empty(t, result.SkippedMaterials)
	assert.Len(t, order.Items[0].Usages, 2)

	m.orderRepo.AssertExpectations(t)
	m.materialRepo.AssertExpectations(t)
}

func TestUpdateStatus_InsufficientStockIsSkippedNotFatal(t *testing.T) {
	svc, m := newOrderServiceForTest()

	order := &model.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-004",
		Status:  model.OrderStatusNew,
		Items: []model.OrderItem{{
			ID:            uuid.New(),
			ProductType:   "flyer",
			Quantity:      100,
			MaterialLabel: "Standard Paper (80gsm)",
			Size:          "A4",
			ColorMode:     "Black & White",
		}},
	}
	paper := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-001", Name: "A4 Standard White Paper", CurrentStock: 50}
	ink := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-002", Name: "Black Ink Cartridge", CurrentStock: 10}

	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, paper.Name).Return(paper, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, ink.Name).Return(ink, nil)
	// No UpdateStock expectation for the paper: touching its stock fails the test.
	m.materialRepo.On("UpdateStock", mock.Anything, ink.ID, 9).Return(nil)
	m.orderRepo.On("AddUsage", mock.Anything, mock.AnythingOfType("*model.MaterialUsage")).Return(nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{paper.Name}, result.SkippedMaterials)
	m.materialRepo.AssertExpectations(t)
}

func TestUpdateStatus_MissingMaterialIsSkipped(t *testing.T) {
	svc, m := newOrderServiceForTest()

	order := &model.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-005",
		Status:  model.OrderStatusNew,
		Items: []model.OrderItem{{
			ID:            uuid.New(),
			ProductType:   "flyer",
			Quantity:      10,
			MaterialLabel: "Transparent Film",
			ColorMode:     "Black & White",
		}},
	}
	ink := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-002", Name: "Black Ink Cartridge", CurrentStock: 10}

	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, "Transparent Film").Return(nil, gorm.ErrRecordNotFound)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, ink.Name).Return(ink, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, ink.ID, 9).Return(nil)
	m.orderRepo.On("AddUsage", mock.Anything, mock.AnythingOfType("*model.MaterialUsage")).Return(nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Transparent Film"}, result.SkippedMaterials)
}

func TestUpdateStatus_CancellationRestoresStock(t *testing.T) {
	svc, m := newOrderServiceForTest()

	order := &model.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-006",
		Status:  model.OrderStatusInProduction,
		Items: []model.OrderItem{{
			ID: uuid.New(),
			Usages: []model.MaterialUsage{{
				MaterialID:   "RM-001",
				MaterialName: "A4 Standard White Paper",
				QuantityUsed: 110,
				Unit:         "sheets",
			}},
		}},
	}
	paper := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-001", Name: "A4 Standard White Paper", CurrentStock: 390}

	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, paper.Name).Return(paper, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, paper.ID, 500).Return(nil)
	m.orderRepo.On("ClearUsages", mock.Anything, order.ID).Return(nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusCancelled,
		Note:   "customer withdrew",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, result.Order.Status)
	assert.Empty(t, result.Warnings)
	assert.Nil(t, order.Items[0].Usages)
	m.materialRepo.AssertExpectations(t)
	m.orderRepo.AssertExpectations(t)
}

func TestUpdateStatus_CompletionReleasesAssignedEmployee(t *testing.T) {
	svc, m := newOrderServiceForTest()

	empID := uuid.New()
	order := &model.Order{
		ID:                 uuid.New(),
		OrderNo:            "ORD-007",
		Status:             model.OrderStatusDelivered,
		AssignedEmployeeID: &empID,
	}
	employee := &model.Employee{ID: empID, AssignedOrders: 1, ActiveOrders: 1, Availability: model.AvailabilityBusy}

	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.employeeRepo.On("FindByIDForUpdate", mock.Anything, empID).Return(employee, nil)
	m.employeeRepo.On("Update", mock.Anything, employee).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, employee.ActiveOrders)
	assert.Equal(t, 1, employee.CompletedOrders)
	assert.Equal(t, model.AvailabilityAvailable, employee.Availability)
	m.employeeRepo.AssertExpectations(t)
}

func TestDeleteOrder_OnlyEarlyStates(t *testing.T) {
	svc, m := newOrderServiceForTest()

	early := &model.Order{ID: uuid.New(), OrderNo: "ORD-008", Status: model.OrderStatusNew}
	late := &model.Order{ID: uuid.New(), OrderNo: "ORD-009", Status: model.OrderStatusInProduction}

	m.orderRepo.On("FindByID", mock.Anything, early.ID).Return(early, nil)
	m.orderRepo.On("FindByID", mock.Anything, late.ID).Return(late, nil)
	m.orderRepo.On("Delete", mock.Anything, early.ID).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	require.NoError(t, svc.DeleteOrder(context.Background(), uuid.New().String(), early.ID.String()))
	assert.ErrorIs(t, svc.DeleteOrder(context.Background(), uuid.New().String(), late.ID.String()), ErrDeleteNotAllowed)
	m.orderRepo.AssertExpectations(t)
}

func TestGetOrder_FallsBackToOrderNo(t *testing.T) {
	svc, m := newOrderServiceForTest()
	order := &model.Order{ID: uuid.New(), OrderNo: "ORD-010", Status: model.OrderStatusNew}
	m.orderRepo.On("FindByOrderNo", mock.Anything, "ORD-010").Return(order, nil)

	got, err := svc.GetOrder(context.Background(), "ORD-010")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestUpdateStatus_RecordedUsageIsNotDeductedTwice(t *testing.T) {
	svc, m := newOrderServiceForTest()

	// The order already carries usage entries (a prior rank-0 transition
	// recorded them); a further move must not touch material stock again.
	order := &model.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-011",
		Status:  model.OrderStatusNew,
		Items: []model.OrderItem{{
			ID:            uuid.New(),
			ProductType:   "flyer",
			Quantity:      100,
			MaterialLabel: "Standard Paper (80gsm)",
			Size:          "A4",
			ColorMode:     "Black & White",
			Usages: []model.MaterialUsage{{
				MaterialID:   "RM-001",
				MaterialName: "A4 Standard White Paper",
				QuantityUsed: 110,
				Unit:         "sheets",
			}},
		}},
	}

	// No materialRepo expectations: any lookup or stock write fails the test.
	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	result, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Empty(t, result.SkippedMaterials)
	assert.Len(t, order.Items[0].Usages, 1)
	m.materialRepo.AssertNotCalled(t, "FindByNameForUpdate", mock.Anything, mock.Anything)
	m.materialRepo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_ConsumptionBelowMinimumRaisesLowStockAlert(t *testing.T) {
	svc, m := newOrderServiceForTest()

	order := &model.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-012",
		Status:  model.OrderStatusNew,
		Items: []model.OrderItem{{
			ID:            uuid.New(),
			ProductType:   "flyer",
			Quantity:      100,
			MaterialLabel: "Standard Paper (80gsm)",
			Size:          "A4",
			ColorMode:     "Black & White",
		}},
	}
	// 115 - 110 leaves 5, at or below the minimum of 10.
	paper := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-001", Name: "A4 Standard White Paper", CurrentStock: 115, MinimumStockLevel: 10}
	ink := &model.RawMaterial{ID: uuid.New(), MaterialID: "RM-002", Name: "Black Ink Cartridge", CurrentStock: 40, MinimumStockLevel: 2}

	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, paper.Name).Return(paper, nil)
	m.materialRepo.On("FindByNameForUpdate", mock.Anything, ink.Name).Return(ink, nil)
	m.materialRepo.On("UpdateStock", mock.Anything, paper.ID, 5).Return(nil)
	m.materialRepo.On("UpdateStock", mock.Anything, ink.ID, 39).Return(nil)
	m.orderRepo.On("AddUsage", mock.Anything, mock.AnythingOfType("*model.MaterialUsage")).Return(nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New().String(), order.ID.String(), UpdateStatusRequest{
		Status: model.OrderStatusConfirmed,
	})
	require.NoError(t, err)

	var lowStock []ws.Event
	for _, event := range drainEvents(t, m.hub) {
		if event.Event == ws.EventLowStock {
			lowStock = append(lowStock, event)
		}
	}
	require.Len(t, lowStock, 1)
	assert.Equal(t, paper.Name, lowStock[0].Data["material"])
	assert.Equal(t, float64(5), lowStock[0].Data["current_stock"])
}

func TestCreateOrder_VolumeDiscountCarriesIntoOrder(t *testing.T) {
	svc, m := newOrderServiceForTest()

	var created *model.Order
	m.counterRepo.On("NextBusinessID", mock.Anything, "ORD").Return("ORD-013", nil)
	m.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*model.Order)
		created.ID = uuid.New()
	}).Return(nil)
	m.orderRepo.On("AppendTracking", mock.Anything, mock.AnythingOfType("*model.TrackingEntry")).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)
	m.orderRepo.On("FindByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(&model.Order{}, nil)

	_, err := svc.CreateOrder(context.Background(), uuid.New().String(), CreateOrderRequest{
		Items: []OrderItemRequest{{
			ProductName: "Business cards",
			ProductType: "business-card",
			Quantity:    1000,
			ColorMode:   "Black & White",
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// 1000 * 0.10 = 100 subtotal, 10% volume discount, 10% tax.
	assert.True(t, created.Subtotal.Equal(decimal.NewFromInt(100)), "subtotal %s", created.Subtotal)
	assert.True(t, created.DiscountAmount.Equal(decimal.NewFromInt(10)), "discount %s", created.DiscountAmount)
	assert.True(t, created.FinalAmount.Equal(decimal.NewFromInt(100)), "final %s", created.FinalAmount)

	quote := ComputePrice(PriceSpec{ProductType: "business-card", ColorMode: "Black & White", Quantity: 1000}, defaultTaxRate)
	assert.True(t, quote.Total.Equal(created.FinalAmount), "quote %s vs order %s", quote.Total, created.FinalAmount)
}

func TestAssignEmployee_RejectsClosedOrders(t *testing.T) {
	svc, m := newOrderServiceForTest()

	cancelled := &model.Order{ID: uuid.New(), OrderNo: "ORD-014", Status: model.OrderStatusCancelled}
	completed := &model.Order{ID: uuid.New(), OrderNo: "ORD-015", Status: model.OrderStatusCompleted}
	m.orderRepo.On("FindByID", mock.Anything, cancelled.ID).Return(cancelled, nil)
	m.orderRepo.On("FindByID", mock.Anything, completed.ID).Return(completed, nil)

	ref := model.EmployeeRef{Kind: model.EmployeeRefCanonical, Code: "EMP-001"}
	_, err := svc.AssignEmployee(context.Background(), uuid.New().String(), cancelled.ID.String(), ref)
	assert.ErrorIs(t, err, ErrAssignNotAllowed)
	_, err = svc.AssignEmployee(context.Background(), uuid.New().String(), completed.ID.String(), ref)
	assert.ErrorIs(t, err, ErrAssignNotAllowed)

	m.employeeRepo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	m.employeeRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRejectReceipt_DeletesStoredFile(t *testing.T) {
	var deleted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = append(deleted, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	svc, m := newOrderServiceWithDrive(drive.NewClient(server.URL, ""))

	order := &model.Order{
		ID:            uuid.New(),
		OrderNo:       "ORD-016",
		Status:        model.OrderStatusNew,
		ReceiptURL:    "https://files.example/receipts/r1.png",
		ReceiptFileID: "file-r1",
	}
	m.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	m.orderRepo.On("Update", mock.Anything, order).Return(nil)
	m.auditRepo.On("Log", mock.Anything, mock.AnythingOfType("*model.AuditLog")).Return(nil)
	m.billing.On("SendRejectionNotice", mock.Anything, order, "blurry photo").Return("")

	result, err := svc.RejectReceipt(context.Background(), uuid.New().String(), order.ID.String(), "blurry photo")
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, order.ReceiptURL)
	assert.Empty(t, order.ReceiptFileID)
	assert.Equal(t, []string{"/files/file-r1"}, deleted)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, m := newOrderServiceForTest()
	id := uuid.New()
	m.orderRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetOrder(context.Background(), id.String())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
