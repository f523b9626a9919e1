package service

import (
	"context"
	"errors"
	"fmt"

	"printshop/internal/config"
	"printshop/internal/model"
	"printshop/internal/repository"
	"printshop/pkg/mailer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrEmployeeNotFound = errors.New("employee not found")

// ApplyWorkload mutates an employee's stored workload counters for one
// action. Counters floor at zero so repair operations and replayed
// requests cannot drive them negative; availability follows the active
// count.
func ApplyWorkload(employee *model.Employee, action string) {
	switch action {
	case model.WorkloadAssign:
		employee.AssignedOrders++
		employee.ActiveOrders++
	case model.WorkloadComplete:
		if employee.ActiveOrders > 0 {
			employee.ActiveOrders--
		}
		employee.CompletedOrders++
	case model.WorkloadUnassign:
		if employee.AssignedOrders > 0 {
			employee.AssignedOrders--
		}
		if employee.ActiveOrders > 0 {
			employee.ActiveOrders--
		}
	}

	if employee.ActiveOrders > 0 {
		employee.Availability = model.AvailabilityBusy
	} else {
		employee.Availability = model.AvailabilityAvailable
	}
}

// --- DTOs ---

type CreateEmployeeRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Salary     string `json:"salary"`
}

type UpdateEmployeeRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Position   *string `json:"position"`
	Department *string `json:"department"`
	Salary     *string `json:"salary"`
	IsActive   *bool   `json:"is_active"`
}

type WorkloadRequest struct {
	Action string `json:"action" binding:"required,oneof=assign complete unassign"`
}

// --- Interface ---

type EmployeeService interface {
	CreateEmployee(ctx context.Context, userID string, req CreateEmployeeRequest) (*model.Employee, []string, error)
	UpdateEmployee(ctx context.Context, ref model.EmployeeRef, req UpdateEmployeeRequest) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, ref model.EmployeeRef) error
	GetEmployee(ctx context.Context, ref model.EmployeeRef) (*model.Employee, error)
	ListEmployees(ctx context.Context, page, limit int, department string) ([]model.Employee, int64, error)
	UpdateWorkload(ctx context.Context, ref model.EmployeeRef, action string) (*model.Employee, error)
	RecountWorkload(ctx context.Context, ref model.EmployeeRef) (*model.Employee, error)
}

type employeeService struct {
	employeeRepo repository.EmployeeRepository
	orderRepo    repository.OrderRepository
	counterRepo  repository.CounterRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	mail         mailer.Mailer
	cfg          *config.Config
}

func NewEmployeeService(
	employeeRepo repository.EmployeeRepository,
	orderRepo repository.OrderRepository,
	counterRepo repository.CounterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	mail mailer.Mailer,
	cfg *config.Config,
) EmployeeService {
	return &employeeService{
		employeeRepo: employeeRepo,
		orderRepo:    orderRepo,
		counterRepo:  counterRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		mail:         mail,
		cfg:          cfg,
	}
}

func (s *employeeService) CreateEmployee(ctx context.Context, userID string, req CreateEmployeeRequest) (*model.Employee, []string, error) {
	salary := decimal.Zero
	if req.Salary != "" {
		var err error
		salary, err = decimal.NewFromString(req.Salary)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid salary: %w", err)
		}
	}

	var employee model.Employee
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		employeeID, err := s.counterRepo.NextBusinessID(txCtx, "EMP")
		if err != nil {
			return fmt.Errorf("failed to allocate employee id: %w", err)
		}
		employee = model.Employee{
			EmployeeID:   employeeID,
			Name:         req.Name,
			Email:        req.Email,
			Phone:        req.Phone,
			Position:     req.Position,
			Department:   req.Department,
			Salary:       salary,
			Availability: model.AvailabilityAvailable,
			IsActive:     true,
		}
		if err := s.employeeRepo.Create(txCtx, &employee); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateEmployee,
			EntityID:   employee.EmployeeID,
			EntityName: employee.Name,
			Details:    "{}",
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	body := fmt.Sprintf(
		"Welcome aboard, %s!\r\n\r\nYour employee id is %s. Your manager will set up your system account shortly.\r\n\r\n%s",
		employee.Name, employee.EmployeeID, s.cfg.ShopName,
	)
	if err := s.mail.Send(employee.Email, "Welcome to "+s.cfg.ShopName, body); err != nil {
		warnings = append(warnings, fmt.Sprintf("welcome email failed: %v", err))
	}
	return &employee, warnings, nil
}

func (s *employeeService) UpdateEmployee(ctx context.Context, ref model.EmployeeRef, req UpdateEmployeeRequest) (*model.Employee, error) {
	employee, err := s.GetEmployee(ctx, ref)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.Phone != nil {
		employee.Phone = *req.Phone
	}
	if req.Position != nil {
		employee.Position = *req.Position
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.Salary != nil {
		salary, err := decimal.NewFromString(*req.Salary)
		if err != nil {
			return nil, fmt.Errorf("invalid salary: %w", err)
		}
		employee.Salary = salary
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := s.employeeRepo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	return employee, nil
}

func (s *employeeService) DeleteEmployee(ctx context.Context, ref model.EmployeeRef) error {
	employee, err := s.GetEmployee(ctx, ref)
	if err != nil {
		return err
	}
	if employee.ActiveOrders > 0 {
		return errors.New("employee still has active orders assigned")
	}
	if err := s.employeeRepo.Delete(ctx, employee.ID); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func (s *employeeService) GetEmployee(ctx context.Context, ref model.EmployeeRef) (*model.Employee, error) {
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
			// A bare uuid may be the employee row itself rather than a
			// linked login account.
			employee, err = s.employeeRepo.FindByID(ctx, ref.UserID)
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to resolve employee: %w", err)
	}
	return employee, nil
}

func (s *employeeService) ListEmployees(ctx context.Context, page, limit int, department string) ([]model.Employee, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.employeeRepo.List(ctx, page, limit, department)
}

// UpdateWorkload applies one workload action under a row lock.
func (s *employeeService) UpdateWorkload(ctx context.Context, ref model.EmployeeRef, action string) (*model.Employee, error) {
	switch action {
	case model.WorkloadAssign, model.WorkloadComplete, model.WorkloadUnassign:
	default:
		return nil, fmt.Errorf("unknown workload action %q", action)
	}

	employee, err := s.GetEmployee(ctx, ref)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.employeeRepo.FindByIDForUpdate(txCtx, employee.ID)
		if err != nil {
			return fmt.Errorf("failed to lock employee record: %w", err)
		}
		ApplyWorkload(locked, action)
		if err := s.employeeRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update workload counters: %w", err)
		}
		employee = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

// RecountWorkload rebuilds the stored counters from the orders table.
// This is the repair path for counters that drifted before workload
// updates were made transactional.
func (s *employeeService) RecountWorkload(ctx context.Context, ref model.EmployeeRef) (*model.Employee, error) {
	employee, err := s.GetEmployee(ctx, ref)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.employeeRepo.FindByIDForUpdate(txCtx, employee.ID)
		if err != nil {
			return fmt.Errorf("failed to lock employee record: %w", err)
		}

		assigned, active, completed, err := s.orderRepo.CountAssignments(txCtx, locked.ID)
		if err != nil {
			return fmt.Errorf("failed to recount assignments: %w", err)
		}

		locked.AssignedOrders = int(assigned)
		locked.ActiveOrders = int(active)
		locked.CompletedOrders = int(completed)
		if locked.ActiveOrders > 0 {
			locked.Availability = model.AvailabilityBusy
		} else {
			locked.Availability = model.AvailabilityAvailable
		}

		if err := s.employeeRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to store recounted workload: %w", err)
		}
		employee = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}
