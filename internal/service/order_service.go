package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"printshop/internal/model"
	"printshop/internal/repository"
	ws "printshop/internal/websocket"
	"printshop/pkg/drive"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Default sales tax applied to order totals unless overridden in settings.
var defaultTaxRate = decimal.NewFromFloat(0.10)

// Business-rule errors surfaced as 400s by the handlers.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCancelNotAllowed  = errors.New("order can no longer be cancelled")
	ErrDeleteNotAllowed  = errors.New("only orders in an early state can be deleted")
	ErrAssignNotAllowed  = errors.New("employees cannot be assigned to a closed order")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNoReceipt         = errors.New("order has no uploaded payment receipt")
)

// --- DTOs ---

type OrderItemRequest struct {
	ProductName   string `json:"product_name" binding:"required"`
	ProductType   string `json:"product_type"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice     string `json:"unit_price"` // optional, quoted via pricing table when empty
	MaterialLabel string `json:"material_label"`
	Size          string `json:"size"`
	ColorMode     string `json:"color_mode"`
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount   string             `json:"discount"`
	Note       string             `json:"note"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// StatusChangeResult reports a transition plus any best-effort side
// effects that did not complete (skipped materials, failed emails).
type StatusChangeResult struct {
	Order            *model.Order `json:"order"`
	SkippedMaterials []string     `json:"skipped_materials,omitempty"`
	Warnings         []string     `json:"warnings,omitempty"`
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderListFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, userID, id string, req UpdateStatusRequest) (*StatusChangeResult, error)
	ApproveReceipt(ctx context.Context, userID, id string) (*StatusChangeResult, error)
	RejectReceipt(ctx context.Context, userID, id, reason string) (*StatusChangeResult, error)
	AttachReceipt(ctx context.Context, id, receiptURL, receiptFileID string) (*model.Order, error)
	AssignEmployee(ctx context.Context, userID, id string, ref model.EmployeeRef) (*model.Order, error)
	UnassignEmployee(ctx context.Context, userID, id string) (*model.Order, error)
	DeleteOrder(ctx context.Context, userID, id string) error
}

type orderService struct {
	orderRepo    repository.OrderRepository
	materialRepo repository.MaterialRepository
	employeeRepo repository.EmployeeRepository
	customerRepo repository.CustomerRepository
	counterRepo  repository.CounterRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	billing      BillingService
	drive        *drive.Client
	hub          *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	materialRepo repository.MaterialRepository,
	employeeRepo repository.EmployeeRepository,
	customerRepo repository.CustomerRepository,
	counterRepo repository.CounterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	billing BillingService,
	driveClient *drive.Client,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		materialRepo: materialRepo,
		employeeRepo: employeeRepo,
		customerRepo: customerRepo,
		counterRepo:  counterRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		billing:      billing,
		drive:        driveClient,
		hub:          hub,
	}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	var customerID *uuid.UUID
	if req.CustomerID != "" {
		parsed, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer_id: %w", err)
		}
		if _, err := s.customerRepo.FindByID(ctx, parsed); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("customer not found")
			}
			return nil, fmt.Errorf("failed to look up customer: %w", err)
		}
		customerID = &parsed
	}

	discount := decimal.Zero
	if req.Discount != "" {
		var err error
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil {
			return nil, fmt.Errorf("invalid discount: %w", err)
		}
	}

	var order model.Order
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		orderNo, err := s.counterRepo.NextBusinessID(txCtx, "ORD")
		if err != nil {
			return fmt.Errorf("failed to allocate order id: %w", err)
		}

		subtotal := decimal.Zero
		items := make([]model.OrderItem, 0, len(req.Items))
		for _, itemReq := range req.Items {
			unitPrice := decimal.Zero
			if itemReq.UnitPrice != "" {
				unitPrice, err = decimal.NewFromString(itemReq.UnitPrice)
				if err != nil {
					return fmt.Errorf("invalid unit_price for %s: %w", itemReq.ProductName, err)
				}
			} else {
				quote := ComputePrice(PriceSpec{
					ProductType: itemReq.ProductType,
					Size:        itemReq.Size,
					ColorMode:   itemReq.ColorMode,
					Quantity:    itemReq.Quantity,
				}, decimal.Zero)
				unitPrice = quote.UnitPrice
				// Server-side pricing carries its volume discount into
				// the order so a quote and the order it becomes agree.
				discount = discount.Add(quote.Discount)
			}

			subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
			items = append(items, model.OrderItem{
				ProductName:   itemReq.ProductName,
				ProductType:   itemReq.ProductType,
				Quantity:      itemReq.Quantity,
				UnitPrice:     unitPrice,
				MaterialLabel: itemReq.MaterialLabel,
				Size:          itemReq.Size,
				ColorMode:     itemReq.ColorMode,
			})
		}

		tax := subtotal.Mul(defaultTaxRate)
		order = model.Order{
			OrderNo:        orderNo,
			CustomerID:     customerID,
			Status:         model.OrderStatusNew,
			PaymentStatus:  model.PaymentStatusUnpaid,
			Subtotal:       subtotal,
			TaxAmount:      tax,
			DiscountAmount: discount,
			FinalAmount:    subtotal.Add(tax).Sub(discount),
			Items:          items,
			Note:           req.Note,
		}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := s.orderRepo.AppendTracking(txCtx, &model.TrackingEntry{
			OrderID: order.ID,
			Status:  model.OrderStatusNew,
			Note:    "Order created",
		}); err != nil {
			return fmt.Errorf("failed to write tracking entry: %w", err)
		}

		return s.audit(txCtx, userID, model.ActionCreateOrder, order.ID.String(), order.OrderNo, req)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, order.ID)
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		// Fall back to the human-readable order number
		order, noErr := s.orderRepo.FindByOrderNo(ctx, id)
		if noErr != nil {
			return nil, ErrOrderNotFound
		}
		return order, nil
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderListFilter) ([]model.Order, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.orderRepo.List(ctx, filter)
}

// UpdateStatus drives the order state machine. The status write, the
// tracking entry, material usage recording (first move out of New) and
// material restoration (cancellation) all commit in one transaction.
func (s *orderService) UpdateStatus(ctx context.Context, userID, id string, req UpdateStatusRequest) (*StatusChangeResult, error) {
	if !ValidStatus(req.Status) {
		return nil, fmt.Errorf("unknown order status %q", req.Status)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status == model.OrderStatusCancelled && !CanCancel(order.Status) {
		return nil, ErrCancelNotAllowed
	}
	if !CanTransition(order.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, req.Status)
	}

	result := &StatusChangeResult{}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		result, txErr = s.applyTransition(txCtx, userID, order, req.Status, req.Note)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventOrderStatus, map[string]interface{}{
		"order_id": result.Order.OrderNo,
		"status":   result.Order.Status,
	})

	return result, nil
}

// applyTransition performs one validated status change inside an open
// transaction. Callers hold responsibility for validation and events.
func (s *orderService) applyTransition(txCtx context.Context, userID string, order *model.Order, newStatus, note string) (*StatusChangeResult, error) {
	result := &StatusChangeResult{}
	prevStatus := order.Status

	if newStatus == model.OrderStatusCancelled {
		warnings, err := s.restoreMaterials(txCtx, order)
		if err != nil {
			return nil, err
		}
		result.Warnings = warnings
	} else if statusRank[prevStatus] == 0 && !hasUsage(order) {
		// First move out of New records material consumption. The
		// hasUsage guard makes the recording idempotent.
		skipped, err := s.recordMaterialUsage(txCtx, order)
		if err != nil {
			return nil, err
		}
		result.SkippedMaterials = skipped
	}

	order.Status = newStatus
	if err := s.orderRepo.Update(txCtx, order); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := s.orderRepo.AppendTracking(txCtx, &model.TrackingEntry{
		OrderID: order.ID,
		Status:  newStatus,
		Note:    note,
	}); err != nil {
		return nil, fmt.Errorf("failed to write tracking entry: %w", err)
	}

	// Completing an order releases its assigned employee.
	if newStatus == model.OrderStatusCompleted && order.AssignedEmployeeID != nil {
		if err := s.applyWorkloadTx(txCtx, *order.AssignedEmployeeID, model.WorkloadComplete); err != nil {
			return nil, err
		}
	}

	details := map[string]interface{}{"from": prevStatus, "to": newStatus, "note": note}
	if err := s.audit(txCtx, userID, model.ActionOrderStatusChange, order.ID.String(), order.OrderNo, details); err != nil {
		return nil, err
	}

	result.Order = order
	return result, nil
}

// recordMaterialUsage decrements stock for every computed usage line of
// every item. Materials with insufficient stock are skipped, never
// driving current_stock negative; the skip is reported, not fatal.
func (s *orderService) recordMaterialUsage(txCtx context.Context, order *model.Order) ([]string, error) {
	var skipped []string
	for i := range order.Items {
		item := &order.Items[i]
		for _, line := range ComputeUsage(*item) {
			material, err := s.materialRepo.FindByNameForUpdate(txCtx, line.MaterialName)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					skipped = append(skipped, line.MaterialName)
					continue
				}
				return nil, fmt.Errorf("failed to lock material %s: %w", line.MaterialName, err)
			}

			if material.CurrentStock < line.Quantity {
				skipped = append(skipped, line.MaterialName)
				s.hub.Publish(ws.EventStockSkipped, map[string]interface{}{
					"order_id": order.OrderNo,
					"material": material.Name,
					"needed":   line.Quantity,
					"in_stock": material.CurrentStock,
				})
				continue
			}

			newStock := material.CurrentStock - line.Quantity
			if err := s.materialRepo.UpdateStock(txCtx, material.ID, newStock); err != nil {
				return nil, fmt.Errorf("failed to decrement stock for %s: %w", material.Name, err)
			}

			usage := model.MaterialUsage{
				OrderItemID:  item.ID,
				MaterialID:   material.MaterialID,
				MaterialName: material.Name,
				QuantityUsed: line.Quantity,
				Unit:         line.Unit,
			}
			if err := s.orderRepo.AddUsage(txCtx, &usage); err != nil {
				return nil, fmt.Errorf("failed to record usage for %s: %w", material.Name, err)
			}
			item.Usages = append(item.Usages, usage)

			if newStock <= material.MinimumStockLevel {
				s.hub.Publish(ws.EventLowStock, map[string]interface{}{
					"material_id":   material.MaterialID,
					"material":      material.Name,
					"current_stock": newStock,
					"minimum":       material.MinimumStockLevel,
				})
			}
		}
	}
	return skipped, nil
}

// restoreMaterials returns every recorded usage quantity to stock and
// clears the usage lists. A material deleted since the deduction is
// reported as a warning rather than blocking the cancellation.
func (s *orderService) restoreMaterials(txCtx context.Context, order *model.Order) ([]string, error) {
	var warnings []string
	for i := range order.Items {
		for _, usage := range order.Items[i].Usages {
			material, err := s.materialRepo.FindByNameForUpdate(txCtx, usage.MaterialName)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					warnings = append(warnings, fmt.Sprintf("material %s no longer exists; %d %s not restored", usage.MaterialName, usage.QuantityUsed, usage.Unit))
					continue
				}
				return nil, fmt.Errorf("failed to lock material %s: %w", usage.MaterialName, err)
			}

			if err := s.materialRepo.UpdateStock(txCtx, material.ID, material.CurrentStock+usage.QuantityUsed); err != nil {
				return nil, fmt.Errorf("failed to restore stock for %s: %w", material.Name, err)
			}
		}
	}

	if err := s.orderRepo.ClearUsages(txCtx, order.ID); err != nil {
		return nil, fmt.Errorf("failed to clear usage records: %w", err)
	}
	for i := range order.Items {
		order.Items[i].Usages = nil
	}
	return warnings, nil
}

// ApproveReceipt verifies the uploaded payment receipt, marks the order
// paid and Confirmed, then generates and emails the invoice. The invoice
// email is best-effort: its failure is reported, never rolled back into
// the status change.
func (s *orderService) ApproveReceipt(ctx context.Context, userID, id string) (*StatusChangeResult, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.ReceiptURL == "" {
		return nil, ErrNoReceipt
	}
	if !CanTransition(order.Status, model.OrderStatusConfirmed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, model.OrderStatusConfirmed)
	}

	var result *StatusChangeResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order.PaymentStatus = model.PaymentStatusPaid
		order.ReceiptVerified = true

		var txErr error
		result, txErr = s.applyTransition(txCtx, userID, order, model.OrderStatusConfirmed, "Payment receipt approved")
		if txErr != nil {
			return txErr
		}
		return s.audit(txCtx, userID, model.ActionApproveReceipt, order.ID.String(), order.OrderNo, nil)
	})
	if err != nil {
		return nil, err
	}

	invoice, warnings := s.billing.GenerateForOrder(ctx, result.Order)
	result.Warnings = append(result.Warnings, warnings...)
	if invoice != nil {
		result.Order.InvoiceID = &invoice.ID
		if err := s.orderRepo.Update(ctx, result.Order); err != nil {
			result.Warnings = append(result.Warnings, "invoice created but could not be linked to the order")
		}
	}

	s.hub.Publish(ws.EventOrderStatus, map[string]interface{}{
		"order_id": result.Order.OrderNo,
		"status":   result.Order.Status,
	})
	return result, nil
}

// RejectReceipt clears verification and notifies the customer.
func (s *orderService) RejectReceipt(ctx context.Context, userID, id, reason string) (*StatusChangeResult, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.ReceiptURL == "" {
		return nil, ErrNoReceipt
	}

	rejectedFileID := order.ReceiptFileID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order.ReceiptVerified = false
		order.ReceiptURL = ""
		order.ReceiptFileID = ""
		order.ReceiptUploadedAt = nil
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to clear receipt: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionRejectReceipt, order.ID.String(), order.OrderNo, map[string]interface{}{"reason": reason})
	})
	if err != nil {
		return nil, err
	}

	result := &StatusChangeResult{Order: order}
	// Best-effort: the rejected file is junk, but a failed remote delete
	// must not undo the rejection.
	if rejectedFileID != "" {
		if err := s.drive.Delete(rejectedFileID); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to delete rejected receipt file: %v", err))
		}
	}
	if warn := s.billing.SendRejectionNotice(ctx, order, reason); warn != "" {
		result.Warnings = append(result.Warnings, warn)
	}
	return result, nil
}

func (s *orderService) AttachReceipt(ctx context.Context, id, receiptURL, receiptFileID string) (*model.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	// Re-uploads replace the previous file best-effort.
	if order.ReceiptFileID != "" && order.ReceiptFileID != receiptFileID {
		_ = s.drive.Delete(order.ReceiptFileID)
	}

	now := time.Now()
	order.ReceiptURL = receiptURL
	order.ReceiptFileID = receiptFileID
	order.ReceiptVerified = false
	order.ReceiptUploadedAt = &now
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to attach receipt: %w", err)
	}
	return order, nil
}

// AssignEmployee pairs the order-assignment write with the workload
// counter update in a single transaction so the two cannot drift apart.
func (s *orderService) AssignEmployee(ctx context.Context, userID, id string, ref model.EmployeeRef) (*model.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case model.OrderStatusCancelled, model.OrderStatusCompleted:
		return nil, fmt.Errorf("%w: order %s is %s", ErrAssignNotAllowed, order.OrderNo, order.Status)
	}

	employee, err := s.resolveEmployee(ctx, ref)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if order.AssignedEmployeeID != nil {
			if err := s.applyWorkloadTx(txCtx, *order.AssignedEmployeeID, model.WorkloadUnassign); err != nil {
				return err
			}
		}

		now := time.Now()
		order.AssignedEmployeeID = &employee.ID
		order.AssignedEmployeeName = employee.Name
		order.AssignedAt = &now
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to assign order: %w", err)
		}

		return s.applyWorkloadTx(txCtx, employee.ID, model.WorkloadAssign)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) UnassignEmployee(ctx context.Context, userID, id string) (*model.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.AssignedEmployeeID == nil {
		return order, nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		employeeID := *order.AssignedEmployeeID
		order.AssignedEmployeeID = nil
		order.AssignedEmployeeName = ""
		order.AssignedAt = nil
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to unassign order: %w", err)
		}
		return s.applyWorkloadTx(txCtx, employeeID, model.WorkloadUnassign)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder hard-removes an order. Permitted only in early states;
// later deletions must go through cancellation so stock is restored.
func (s *orderService) DeleteOrder(ctx context.Context, userID, id string) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if !IsEarlyStatus(order.Status) {
		return ErrDeleteNotAllowed
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Delete(txCtx, order.ID); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteOrder, order.ID.String(), order.OrderNo, nil)
	})
}

// --- helpers ---

func (s *orderService) resolveEmployee(ctx context.Context, ref model.EmployeeRef) (*model.Employee, error) {
	var (
		employee *model.Employee
		err      error
	)
	switch ref.Kind {
	case model.EmployeeRefCanonical:
		employee, err = s.employeeRepo.FindByEmployeeID(ctx, ref.Code)
	case model.EmployeeRefUserLinked:
		employee, err = s.employeeRepo.FindByUserID(ctx, ref.UserID)
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			employee, err = s.employeeRepo.FindByID(ctx, ref.UserID)
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("employee not found")
		}
		return nil, fmt.Errorf("failed to resolve employee: %w", err)
	}
	return employee, nil
}

func (s *orderService) applyWorkloadTx(txCtx context.Context, employeeID uuid.UUID, action string) error {
	employee, err := s.employeeRepo.FindByIDForUpdate(txCtx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to lock employee record: %w", err)
	}
	ApplyWorkload(employee, action)
	if err := s.employeeRepo.Update(txCtx, employee); err != nil {
		return fmt.Errorf("failed to update workload counters: %w", err)
	}
	return nil
}

func (s *orderService) audit(txCtx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details := "{}"
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			details = string(raw)
		}
	}

	if err := s.auditRepo.Log(txCtx, &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func hasUsage(order *model.Order) bool {
	for _, item := range order.Items {
		if len(item.Usages) > 0 {
			return true
		}
	}
	return false
}
