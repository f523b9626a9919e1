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

var ErrJobNotFound = errors.New("production job not found")

// --- DTOs ---

type CreateJobRequest struct {
	OrderID    string `json:"order_id" binding:"required"`
	EmployeeID string `json:"employee_id"`
	Note       string `json:"note"`
}

// --- Interface ---

// ProductionService schedules shop-floor jobs. Starting a job pushes the
// order into In_Production; completing it hands the order to
// Quality_Check.
type ProductionService interface {
	CreateJob(ctx context.Context, userID string, req CreateJobRequest) (*model.ProductionJob, error)
	StartJob(ctx context.Context, userID, id string) (*model.ProductionJob, error)
	CompleteJob(ctx context.Context, userID, id string) (*model.ProductionJob, error)
	GetJob(ctx context.Context, id string) (*model.ProductionJob, error)
	ListJobs(ctx context.Context, page, limit int, status string) ([]model.ProductionJob, int64, error)
}

type productionService struct {
	productionRepo repository.ProductionRepository
	employeeRepo   repository.EmployeeRepository
	counterRepo    repository.CounterRepository
	txManager      repository.TransactionManager
	orders         OrderService
}

func NewProductionService(
	productionRepo repository.ProductionRepository,
	employeeRepo repository.EmployeeRepository,
	counterRepo repository.CounterRepository,
	txManager repository.TransactionManager,
	orders OrderService,
) ProductionService {
	return &productionService{
		productionRepo: productionRepo,
		employeeRepo:   employeeRepo,
		counterRepo:    counterRepo,
		txManager:      txManager,
		orders:         orders,
	}
}

func (s *productionService) CreateJob(ctx context.Context, userID string, req CreateJobRequest) (*model.ProductionJob, error) {
	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, model.OrderStatusInProduction) && order.Status != model.OrderStatusInProduction {
		return nil, fmt.Errorf("order %s cannot enter production from status %s", order.OrderNo, order.Status)
	}

	var employeeID *uuid.UUID
	if req.EmployeeID != "" {
		ref, err := model.ParseEmployeeRef(req.EmployeeID)
		if err != nil {
			return nil, err
		}
		assigned, err := s.orders.AssignEmployee(ctx, userID, req.OrderID, ref)
		if err != nil {
			return nil, err
		}
		employeeID = assigned.AssignedEmployeeID
	}

	var job model.ProductionJob
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		jobNo, err := s.counterRepo.NextBusinessID(txCtx, "JOB")
		if err != nil {
			return fmt.Errorf("failed to allocate job id: %w", err)
		}
		job = model.ProductionJob{
			JobNo:              jobNo,
			OrderID:            order.ID,
			AssignedEmployeeID: employeeID,
			Status:             model.ProductionStatusQueued,
			Note:               req.Note,
		}
		if err := s.productionRepo.Create(txCtx, &job); err != nil {
			return fmt.Errorf("failed to create production job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *productionService) StartJob(ctx context.Context, userID, id string) (*model.ProductionJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.ProductionStatusQueued {
		return nil, fmt.Errorf("job %s cannot start from status %s", job.JobNo, job.Status)
	}

	order, err := s.orders.GetOrder(ctx, job.OrderID.String())
	if err != nil {
		return nil, err
	}
	// The order may already be In_Production when several jobs run for
	// the same order.
	if order.Status != model.OrderStatusInProduction {
		if _, err := s.orders.UpdateStatus(ctx, userID, job.OrderID.String(), UpdateStatusRequest{
			Status: model.OrderStatusInProduction,
			Note:   "Production job " + job.JobNo + " started",
		}); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	job.Status = model.ProductionStatusInProgress
	job.StartedAt = &now
	if err := s.productionRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update production job: %w", err)
	}
	return job, nil
}

func (s *productionService) CompleteJob(ctx context.Context, userID, id string) (*model.ProductionJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.ProductionStatusInProgress {
		return nil, fmt.Errorf("job %s cannot complete from status %s", job.JobNo, job.Status)
	}

	if _, err := s.orders.UpdateStatus(ctx, userID, job.OrderID.String(), UpdateStatusRequest{
		Status: model.OrderStatusQualityCheck,
		Note:   "Production job " + job.JobNo + " completed",
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = model.ProductionStatusCompleted
	job.CompletedAt = &now
	if err := s.productionRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update production job: %w", err)
	}
	return job, nil
}

func (s *productionService) GetJob(ctx context.Context, id string) (*model.ProductionJob, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrJobNotFound
	}
	job, err := s.productionRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to fetch production job: %w", err)
	}
	return job, nil
}

func (s *productionService) ListJobs(ctx context.Context, page, limit int, status string) ([]model.ProductionJob, int64, error) {
	return s.productionRepo.List(ctx, page, limit, status)
}
