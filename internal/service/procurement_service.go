package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printshop/internal/config"
	"printshop/internal/model"
	"printshop/internal/repository"
	ws "printshop/internal/websocket"
	"printshop/pkg/mailer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrMaterialOrderNotFound = errors.New("material order not found")
	ErrAlreadyDelivered      = errors.New("material order is already delivered")
	ErrDamagedExceedsOrdered = errors.New("damaged amount cannot exceed the quantity ordered")
)

// --- DTOs ---

type CreateMaterialOrderRequest struct {
	SupplierID   string `json:"supplier_id" binding:"required"`
	MaterialID   string `json:"material_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice    string `json:"unit_price" binding:"required"`
	ExpectedDate string `json:"expected_date"`
	Note         string `json:"note"`
}

type UpdateMaterialOrderRequest struct {
	Quantity     *int    `json:"quantity"`
	UnitPrice    *string `json:"unit_price"`
	Damaged      *int    `json:"damaged_items_amount"`
	Status       *string `json:"status"`
	ExpectedDate *string `json:"expected_date"`
	Note         *string `json:"note"`
}

// DeliveryResult reports the stock movement and finance records created
// by marking a purchase delivered.
type DeliveryResult struct {
	Order      *model.MaterialOrder `json:"material_order"`
	StockAdded int                  `json:"stock_added"`
	ExpenseNo  string               `json:"expense_id"`
	Warnings   []string             `json:"warnings,omitempty"`
}

// --- Interface ---

type ProcurementService interface {
	CreateMaterialOrder(ctx context.Context, userID string, req CreateMaterialOrderRequest) (*model.MaterialOrder, []string, error)
	UpdateMaterialOrder(ctx context.Context, id string, req UpdateMaterialOrderRequest) (*model.MaterialOrder, error)
	GetMaterialOrder(ctx context.Context, id string) (*model.MaterialOrder, error)
	ListMaterialOrders(ctx context.Context, page, limit int, status string) ([]model.MaterialOrder, int64, error)
	CancelMaterialOrder(ctx context.Context, id string) (*model.MaterialOrder, error)
	MarkDelivered(ctx context.Context, userID, id string, damaged int) (*DeliveryResult, error)
}

type procurementService struct {
	materialOrderRepo repository.MaterialOrderRepository
	materialRepo      repository.MaterialRepository
	supplierRepo      repository.SupplierRepository
	expenseRepo       repository.ExpenseRepository
	ledgerRepo        repository.LedgerRepository
	counterRepo       repository.CounterRepository
	auditRepo         repository.AuditRepository
	txManager         repository.TransactionManager
	mail              mailer.Mailer
	hub               *ws.Hub
	cfg               *config.Config
}

func NewProcurementService(
	materialOrderRepo repository.MaterialOrderRepository,
	materialRepo repository.MaterialRepository,
	supplierRepo repository.SupplierRepository,
	expenseRepo repository.ExpenseRepository,
	ledgerRepo repository.LedgerRepository,
	counterRepo repository.CounterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	mail mailer.Mailer,
	hub *ws.Hub,
	cfg *config.Config,
) ProcurementService {
	return &procurementService{
		materialOrderRepo: materialOrderRepo,
		materialRepo:      materialRepo,
		supplierRepo:      supplierRepo,
		expenseRepo:       expenseRepo,
		ledgerRepo:        ledgerRepo,
		counterRepo:       counterRepo,
		auditRepo:         auditRepo,
		txManager:         txManager,
		mail:              mail,
		hub:               hub,
		cfg:               cfg,
	}
}

func (s *procurementService) CreateMaterialOrder(ctx context.Context, userID string, req CreateMaterialOrderRequest) (*model.MaterialOrder, []string, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid supplier_id: %w", err)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("supplier not found")
		}
		return nil, nil, fmt.Errorf("failed to look up supplier: %w", err)
	}

	material, err := s.resolveMaterial(ctx, req.MaterialID)
	if err != nil {
		return nil, nil, err
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid unit_price: %w", err)
	}

	var expectedDate *time.Time
	if req.ExpectedDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpectedDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid expected_date: %w", err)
		}
		expectedDate = &parsed
	}

	var order model.MaterialOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		orderNo, err := s.counterRepo.NextBusinessID(txCtx, "MO")
		if err != nil {
			return fmt.Errorf("failed to allocate material order id: %w", err)
		}
		order = model.MaterialOrder{
			OrderNo:         orderNo,
			SupplierID:      supplier.ID,
			MaterialID:      material.ID,
			QuantityOrdered: req.Quantity,
			UnitPrice:       unitPrice,
			TotalPrice:      unitPrice.Mul(intToDecimal(req.Quantity)),
			Status:          model.MaterialOrderStatusOrdered,
			ExpectedDate:    expectedDate,
			Note:            req.Note,
		}
		if err := s.materialOrderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create material order: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateMaterialOrder,
			EntityID:   order.OrderNo,
			EntityName: material.Name,
			Details:    "{}",
		})
	})
	if err != nil {
		return nil, nil, err
	}
	order.Supplier = supplier
	order.Material = material

	var warnings []string
	if supplier.Email != "" {
		body := fmt.Sprintf(
			"Purchase order %s\r\n\r\nMaterial: %s\r\nQuantity: %d %s\r\nUnit price: %s\r\nTotal: %s\r\n\r\n%s",
			order.OrderNo, material.Name, order.QuantityOrdered, material.Unit,
			order.UnitPrice.StringFixed(2), order.TotalPrice.StringFixed(2), s.cfg.ShopName,
		)
		if err := s.mail.Send(supplier.Email, "Purchase order "+order.OrderNo, body); err != nil {
			warnings = append(warnings, fmt.Sprintf("supplier email failed: %v", err))
		}
	} else {
		warnings = append(warnings, "supplier email skipped: no address on file")
	}
	return &order, warnings, nil
}

func (s *procurementService) UpdateMaterialOrder(ctx context.Context, id string, req UpdateMaterialOrderRequest) (*model.MaterialOrder, error) {
	order, err := s.GetMaterialOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == model.MaterialOrderStatusDelivered {
		return nil, ErrAlreadyDelivered
	}

	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, errors.New("quantity must be positive")
		}
		order.QuantityOrdered = *req.Quantity
	}
	if req.UnitPrice != nil {
		unitPrice, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_price: %w", err)
		}
		order.UnitPrice = unitPrice
	}
	if req.Damaged != nil {
		if *req.Damaged < 0 || *req.Damaged > order.QuantityOrdered {
			return nil, ErrDamagedExceedsOrdered
		}
		order.DamagedItemsAmount = *req.Damaged
	}
	if req.Status != nil {
		switch *req.Status {
		case model.MaterialOrderStatusOrdered, model.MaterialOrderStatusInTransit:
			order.Status = *req.Status
		case model.MaterialOrderStatusDelivered:
			return nil, errors.New("use the delivery endpoint to mark a purchase delivered")
		case model.MaterialOrderStatusCancelled:
			return nil, errors.New("use the cancel endpoint to cancel a purchase")
		default:
			return nil, fmt.Errorf("unknown material order status %q", *req.Status)
		}
	}
	if req.ExpectedDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ExpectedDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expected_date: %w", err)
		}
		order.ExpectedDate = &parsed
	}
	if req.Note != nil {
		order.Note = *req.Note
	}

	// Total always follows quantity and unit price.
	order.TotalPrice = order.UnitPrice.Mul(intToDecimal(order.QuantityOrdered))

	if err := s.materialOrderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update material order: %w", err)
	}
	return order, nil
}

func (s *procurementService) GetMaterialOrder(ctx context.Context, id string) (*model.MaterialOrder, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrMaterialOrderNotFound
	}
	order, err := s.materialOrderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch material order: %w", err)
	}
	return order, nil
}

func (s *procurementService) ListMaterialOrders(ctx context.Context, page, limit int, status string) ([]model.MaterialOrder, int64, error) {
	return s.materialOrderRepo.List(ctx, page, limit, status)
}

func (s *procurementService) CancelMaterialOrder(ctx context.Context, id string) (*model.MaterialOrder, error) {
	order, err := s.GetMaterialOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == model.MaterialOrderStatusDelivered {
		return nil, ErrAlreadyDelivered
	}
	if order.Status == model.MaterialOrderStatusCancelled {
		return order, nil
	}

	order.Status = model.MaterialOrderStatusCancelled
	if err := s.materialOrderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to cancel material order: %w", err)
	}
	return order, nil
}

// MarkDelivered closes a purchase: the usable quantity lands in stock,
// an expense and its ledger entries post, and the finance transfer flag
// flips — all in one transaction. A second delivery call is rejected so
// stock can never be credited twice.
func (s *procurementService) MarkDelivered(ctx context.Context, userID, id string, damaged int) (*DeliveryResult, error) {
	result := &DeliveryResult{}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		orderID, err := uuid.Parse(id)
		if err != nil {
			return ErrMaterialOrderNotFound
		}
		order, err := s.materialOrderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMaterialOrderNotFound
			}
			return fmt.Errorf("failed to lock material order: %w", err)
		}
		if order.Status == model.MaterialOrderStatusDelivered {
			return ErrAlreadyDelivered
		}
		if order.Status == model.MaterialOrderStatusCancelled {
			return errors.New("cancelled material orders cannot be delivered")
		}
		if damaged < 0 || damaged > order.QuantityOrdered {
			return ErrDamagedExceedsOrdered
		}

		material, err := s.materialRepo.FindByIDForUpdate(txCtx, order.MaterialID)
		if err != nil {
			return fmt.Errorf("failed to lock material: %w", err)
		}

		now := time.Now()
		order.DamagedItemsAmount = damaged
		order.Status = model.MaterialOrderStatusDelivered
		order.DeliveryDate = &now
		order.FinanceTransferStatus = model.FinanceTransferTransferred

		usable := order.UsableQuantity()
		if err := s.materialRepo.UpdateStock(txCtx, material.ID, material.CurrentStock+usable); err != nil {
			return fmt.Errorf("failed to credit stock: %w", err)
		}
		if err := s.materialOrderRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update material order: %w", err)
		}

		expenseNo, err := s.counterRepo.NextBusinessID(txCtx, "EXP")
		if err != nil {
			return fmt.Errorf("failed to allocate expense id: %w", err)
		}
		expense := model.Expense{
			ExpenseNo:     expenseNo,
			Category:      model.ExpenseCategoryMaterials,
			Description:   fmt.Sprintf("Material purchase %s: %s", order.OrderNo, material.Name),
			Amount:        order.TotalPrice,
			Status:        model.FinanceStatusCleared,
			ReferenceType: model.FinanceRefMaterialOrder,
			ReferenceID:   &order.ID,
		}
		if err := s.expenseRepo.Create(txCtx, &expense); err != nil {
			return fmt.Errorf("failed to record expense: %w", err)
		}

		if err := postLedgerPair(txCtx, s.ledgerRepo, s.counterRepo, order.TotalPrice, expense.Description, model.FinanceRefMaterialOrder, &order.ID); err != nil {
			return err
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
		if err := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionMarkDelivered,
			EntityID:   order.OrderNo,
			EntityName: material.Name,
			Details:    fmt.Sprintf(`{"usable":%d,"damaged":%d}`, usable, damaged),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		result.Order = order
		result.StockAdded = usable
		result.ExpenseNo = expense.ExpenseNo

		if material.CurrentStock+usable <= material.MinimumStockLevel {
			s.hub.Publish(ws.EventLowStock, map[string]interface{}{
				"material_id":   material.MaterialID,
				"material":      material.Name,
				"current_stock": material.CurrentStock + usable,
				"minimum":       material.MinimumStockLevel,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventMaterialStock, map[string]interface{}{
		"material_order": result.Order.OrderNo,
		"stock_added":    result.StockAdded,
	})
	return result, nil
}

// resolveMaterial accepts a uuid or an RM- business id.
func (s *procurementService) resolveMaterial(ctx context.Context, id string) (*model.RawMaterial, error) {
	var (
		material *model.RawMaterial
		err      error
	)
	if parsed, parseErr := uuid.Parse(id); parseErr == nil {
		material, err = s.materialRepo.FindByID(ctx, parsed)
	} else {
		material, err = s.materialRepo.FindByMaterialID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("material not found")
		}
		return nil, fmt.Errorf("failed to look up material: %w", err)
	}
	return material, nil
}
