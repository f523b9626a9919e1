package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printshop/internal/model"
	"printshop/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDeliveryNotFound = errors.New("delivery not found")

// --- DTOs ---

type CreateDeliveryRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	Address     string `json:"address" binding:"required"`
	DriverID    string `json:"driver_id"`
	ScheduledAt string `json:"scheduled_at"`
	Note        string `json:"note"`
}

// --- Interface ---

// DeliveryService schedules shipments and drives the linked order
// through Out_for_Delivery and Delivered as the shipment progresses.
type DeliveryService interface {
	CreateDelivery(ctx context.Context, userID string, req CreateDeliveryRequest) (*model.Delivery, error)
	StartDelivery(ctx context.Context, userID, id string) (*model.Delivery, error)
	CompleteDelivery(ctx context.Context, userID, id string) (*model.Delivery, error)
	FailDelivery(ctx context.Context, userID, id, note string) (*model.Delivery, error)
	GetDelivery(ctx context.Context, id string) (*model.Delivery, error)
	ListDeliveries(ctx context.Context, page, limit int, status string) ([]model.Delivery, int64, error)
}

type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	employeeRepo repository.EmployeeRepository
	counterRepo  repository.CounterRepository
	txManager    repository.TransactionManager
	orders       OrderService
}

func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	employeeRepo repository.EmployeeRepository,
	counterRepo repository.CounterRepository,
	txManager repository.TransactionManager,
	orders OrderService,
) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		employeeRepo: employeeRepo,
		counterRepo:  counterRepo,
		txManager:    txManager,
		orders:       orders,
	}
}

func (s *deliveryService) CreateDelivery(ctx context.Context, userID string, req CreateDeliveryRequest) (*model.Delivery, error) {
	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusReadyForDelivery {
		return nil, fmt.Errorf("order %s is not ready for delivery (status %s)", order.OrderNo, order.Status)
	}

	var driverID *uuid.UUID
	if req.DriverID != "" {
		ref, err := model.ParseEmployeeRef(req.DriverID)
		if err != nil {
			return nil, err
		}
		driver, err := s.resolveDriver(ctx, ref)
		if err != nil {
			return nil, err
		}
		driverID = &driver.ID
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduled_at: %w", err)
		}
		scheduledAt = &parsed
	}

	var delivery model.Delivery
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deliveryNo, err := s.counterRepo.NextBusinessID(txCtx, "DEL")
		if err != nil {
			return fmt.Errorf("failed to allocate delivery id: %w", err)
		}
		delivery = model.Delivery{
			DeliveryNo:  deliveryNo,
			OrderID:     order.ID,
			DriverID:    driverID,
			Address:     req.Address,
			Status:      model.DeliveryStatusScheduled,
			ScheduledAt: scheduledAt,
			Note:        req.Note,
		}
		if err := s.deliveryRepo.Create(txCtx, &delivery); err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (s *deliveryService) StartDelivery(ctx context.Context, userID, id string) (*model.Delivery, error) {
	delivery, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status != model.DeliveryStatusScheduled {
		return nil, fmt.Errorf("delivery %s cannot start from status %s", delivery.DeliveryNo, delivery.Status)
	}

	if _, err := s.orders.UpdateStatus(ctx, userID, delivery.OrderID.String(), UpdateStatusRequest{
		Status: model.OrderStatusOutForDelivery,
		Note:   "Delivery " + delivery.DeliveryNo + " departed",
	}); err != nil {
		return nil, err
	}

	delivery.Status = model.DeliveryStatusOut
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to update delivery: %w", err)
	}
	return delivery, nil
}

// CompleteDelivery closes the shipment and moves the order to Delivered.
func (s *deliveryService) CompleteDelivery(ctx context.Context, userID, id string) (*model.Delivery, error) {
	delivery, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status != model.DeliveryStatusOut {
		return nil, fmt.Errorf("delivery %s cannot complete from status %s", delivery.DeliveryNo, delivery.Status)
	}

	if _, err := s.orders.UpdateStatus(ctx, userID, delivery.OrderID.String(), UpdateStatusRequest{
		Status: model.OrderStatusDelivered,
		Note:   "Delivery " + delivery.DeliveryNo + " completed",
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	delivery.Status = model.DeliveryStatusDelivered
	delivery.CompletedAt = &now
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to update delivery: %w", err)
	}
	return delivery, nil
}

// FailDelivery marks the attempt failed; the order stays where it is so
// a new delivery can be scheduled.
func (s *deliveryService) FailDelivery(ctx context.Context, userID, id, note string) (*model.Delivery, error) {
	delivery, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status == model.DeliveryStatusDelivered {
		return nil, errors.New("completed deliveries cannot be failed")
	}

	delivery.Status = model.DeliveryStatusFailed
	if note != "" {
		delivery.Note = note
	}
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to update delivery: %w", err)
	}
	return delivery, nil
}

func (s *deliveryService) GetDelivery(ctx context.Context, id string) (*model.Delivery, error) {
	deliveryID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrDeliveryNotFound
	}
	delivery, err := s.deliveryRepo.FindByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("failed to fetch delivery: %w", err)
	}
	return delivery, nil
}

func (s *deliveryService) ListDeliveries(ctx context.Context, page, limit int, status string) ([]model.Delivery, int64, error) {
	return s.deliveryRepo.List(ctx, page, limit, status)
}

func (s *deliveryService) resolveDriver(ctx context.Context, ref model.EmployeeRef) (*model.Employee, error) {
	var (
		driver *model.Employee
		err    error
	)
	switch ref.Kind {
	case model.EmployeeRefCanonical:
		driver, err = s.employeeRepo.FindByEmployeeID(ctx, ref.Code)
	case model.EmployeeRefUserLinked:
		driver, err = s.employeeRepo.FindByUserID(ctx, ref.UserID)
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			driver, err = s.employeeRepo.FindByID(ctx, ref.UserID)
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("driver not found")
		}
		return nil, fmt.Errorf("failed to resolve driver: %w", err)
	}
	return driver, nil
}
