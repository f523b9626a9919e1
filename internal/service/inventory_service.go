package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"printshop/internal/model"
	"printshop/internal/repository"
	ws "printshop/internal/websocket"
	"printshop/pkg/drive"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrNegativeStock    = errors.New("stock adjustment would drive stock negative")
)

// --- DTOs ---

type CreateMaterialRequest struct {
	Name              string `json:"name" binding:"required"`
	Category          string `json:"category"`
	Unit              string `json:"unit"`
	CurrentStock      int    `json:"current_stock" binding:"gte=0"`
	MinimumStockLevel int    `json:"minimum_stock_level" binding:"gte=0"`
	UnitCost          string `json:"unit_cost"`
}

type UpdateMaterialRequest struct {
	Name              *string `json:"name"`
	Category          *string `json:"category"`
	Unit              *string `json:"unit"`
	MinimumStockLevel *int    `json:"minimum_stock_level"`
	UnitCost          *string `json:"unit_cost"`
}

type StockAdjustment struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// --- Interface ---

type InventoryService interface {
	CreateMaterial(ctx context.Context, userID string, req CreateMaterialRequest) (*model.RawMaterial, error)
	UpdateMaterial(ctx context.Context, userID, id string, req UpdateMaterialRequest) (*model.RawMaterial, error)
	DeleteMaterial(ctx context.Context, userID, id string) error
	GetMaterial(ctx context.Context, id string) (*model.RawMaterial, error)
	ListMaterials(ctx context.Context, page, limit int, search, category string) ([]model.RawMaterial, int64, error)
	ListLowStock(ctx context.Context) ([]model.RawMaterial, error)
	AdjustStock(ctx context.Context, userID, id string, adj StockAdjustment) (*model.RawMaterial, error)
	AttachImage(ctx context.Context, id, filename string, content io.Reader) (*model.RawMaterial, error)
	RemoveImage(ctx context.Context, id string) (*model.RawMaterial, error)
}

type inventoryService struct {
	materialRepo repository.MaterialRepository
	counterRepo  repository.CounterRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	drive        *drive.Client
	hub          *ws.Hub
}

func NewInventoryService(
	materialRepo repository.MaterialRepository,
	counterRepo repository.CounterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	driveClient *drive.Client,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		materialRepo: materialRepo,
		counterRepo:  counterRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		drive:        driveClient,
		hub:          hub,
	}
}

func (s *inventoryService) CreateMaterial(ctx context.Context, userID string, req CreateMaterialRequest) (*model.RawMaterial, error) {
	unitCost := decimal.Zero
	if req.UnitCost != "" {
		var err error
		unitCost, err = decimal.NewFromString(req.UnitCost)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_cost: %w", err)
		}
	}

	if _, err := s.materialRepo.FindByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("material %q already exists", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check material name: %w", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "sheets"
	}

	var material model.RawMaterial
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		materialID, err := s.counterRepo.NextBusinessID(txCtx, "RM")
		if err != nil {
			return fmt.Errorf("failed to allocate material id: %w", err)
		}
		material = model.RawMaterial{
			MaterialID:        materialID,
			Name:              req.Name,
			Category:          req.Category,
			Unit:              unit,
			CurrentStock:      req.CurrentStock,
			MinimumStockLevel: req.MinimumStockLevel,
			UnitCost:          unitCost,
		}
		if err := s.materialRepo.Create(txCtx, &material); err != nil {
			return fmt.Errorf("failed to create material: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionCreateMaterial, material.MaterialID, material.Name, "{}")
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (s *inventoryService) UpdateMaterial(ctx context.Context, userID, id string, req UpdateMaterialRequest) (*model.RawMaterial, error) {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != material.Name {
		if _, err := s.materialRepo.FindByName(ctx, *req.Name); err == nil {
			return nil, fmt.Errorf("material %q already exists", *req.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check material name: %w", err)
		}
		material.Name = *req.Name
	}
	if req.Category != nil {
		material.Category = *req.Category
	}
	if req.Unit != nil {
		material.Unit = *req.Unit
	}
	if req.MinimumStockLevel != nil {
		if *req.MinimumStockLevel < 0 {
			return nil, errors.New("minimum_stock_level cannot be negative")
		}
		material.MinimumStockLevel = *req.MinimumStockLevel
	}
	if req.UnitCost != nil {
		unitCost, err := decimal.NewFromString(*req.UnitCost)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_cost: %w", err)
		}
		material.UnitCost = unitCost
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.materialRepo.Update(txCtx, material); err != nil {
			return fmt.Errorf("failed to update material: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateMaterial, material.MaterialID, material.Name, "{}")
	})
	if err != nil {
		return nil, err
	}
	return material, nil
}

func (s *inventoryService) DeleteMaterial(ctx context.Context, userID, id string) error {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.materialRepo.Delete(txCtx, material.ID); err != nil {
			return fmt.Errorf("failed to delete material: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteMaterial, material.MaterialID, material.Name, "{}")
	})
}

// GetMaterial accepts a uuid or an RM- business id.
func (s *inventoryService) GetMaterial(ctx context.Context, id string) (*model.RawMaterial, error) {
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
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to fetch material: %w", err)
	}
	return material, nil
}

func (s *inventoryService) ListMaterials(ctx context.Context, page, limit int, search, category string) ([]model.RawMaterial, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.materialRepo.List(ctx, page, limit, search, category)
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]model.RawMaterial, error) {
	return s.materialRepo.ListLowStock(ctx)
}

// AdjustStock applies a signed delta under a row lock. Adjustments that
// would drive stock negative are rejected outright; this path is for
// manual corrections, not order consumption.
func (s *inventoryService) AdjustStock(ctx context.Context, userID, id string, adj StockAdjustment) (*model.RawMaterial, error) {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.materialRepo.FindByIDForUpdate(txCtx, material.ID)
		if err != nil {
			return fmt.Errorf("failed to lock material: %w", err)
		}

		newStock := locked.CurrentStock + adj.Delta
		if newStock < 0 {
			return ErrNegativeStock
		}
		if err := s.materialRepo.UpdateStock(txCtx, locked.ID, newStock); err != nil {
			return fmt.Errorf("failed to adjust stock: %w", err)
		}
		locked.CurrentStock = newStock
		material = locked

		details := fmt.Sprintf(`{"delta":%d,"reason":%q}`, adj.Delta, adj.Reason)
		return s.logAudit(txCtx, userID, model.ActionAdjustStock, locked.MaterialID, locked.Name, details)
	})
	if err != nil {
		return nil, err
	}

	if material.LowStock() {
		s.hub.Publish(ws.EventLowStock, map[string]interface{}{
			"material_id":   material.MaterialID,
			"material":      material.Name,
			"current_stock": material.CurrentStock,
			"minimum":       material.MinimumStockLevel,
		})
	}
	return material, nil
}

// AttachImage uploads a product photo to the external drive and stores
// the returned URL. A previous image is deleted best-effort.
func (s *inventoryService) AttachImage(ctx context.Context, id, filename string, content io.Reader) (*model.RawMaterial, error) {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.drive.Upload("materials", filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	if material.ImageFileID != "" {
		_ = s.drive.Delete(material.ImageFileID)
	}

	material.ImageURL = result.DirectURL
	material.ImageFileID = result.FileID
	if err := s.materialRepo.Update(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to store image reference: %w", err)
	}
	return material, nil
}

func (s *inventoryService) RemoveImage(ctx context.Context, id string) (*model.RawMaterial, error) {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.ImageFileID == "" {
		return material, nil
	}

	if err := s.drive.Delete(material.ImageFileID); err != nil {
		return nil, fmt.Errorf("failed to delete image: %w", err)
	}
	material.ImageURL = ""
	material.ImageFileID = ""
	if err := s.materialRepo.Update(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to clear image reference: %w", err)
	}
	return material, nil
}

func (s *inventoryService) logAudit(txCtx context.Context, userID, action, entityID, entityName, details string) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
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
