package service

import (
	"context"
	"errors"
	"fmt"

	"printshop/internal/model"
	"printshop/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrSupplierNotFound = errors.New("supplier not found")
)

// --- DTOs ---

type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
}

type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// --- Interfaces ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id string, req CustomerRequest) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
}

type SupplierService interface {
	CreateSupplier(ctx context.Context, req SupplierRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id string, req SupplierRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, page, limit int, search string) ([]model.Supplier, int64, error)
}

// --- Customer implementation ---

type customerService struct {
	customerRepo repository.CustomerRepository
	counterRepo  repository.CounterRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	counterRepo repository.CounterRepository,
	txManager repository.TransactionManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		counterRepo:  counterRepo,
		txManager:    txManager,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, req CustomerRequest) (*model.Customer, error) {
	var customer model.Customer
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customerID, err := s.counterRepo.NextBusinessID(txCtx, "CUS")
		if err != nil {
			return fmt.Errorf("failed to allocate customer id: %w", err)
		}
		customer = model.Customer{
			CustomerID: customerID,
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			Company:    req.Company,
			Address:    req.Address,
		}
		if err := s.customerRepo.Create(txCtx, &customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req CustomerRequest) (*model.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Company = req.Company
	customer.Address = req.Address
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, customer.ID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// GetCustomer accepts a uuid or a CUS- business id.
func (s *customerService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	var (
		customer *model.Customer
		err      error
	)
	if parsed, parseErr := uuid.Parse(id); parseErr == nil {
		customer, err = s.customerRepo.FindByID(ctx, parsed)
	} else {
		customer, err = s.customerRepo.FindByCustomerID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.customerRepo.List(ctx, page, limit, search)
}

// --- Supplier implementation ---

type supplierService struct {
	supplierRepo repository.SupplierRepository
	counterRepo  repository.CounterRepository
	txManager    repository.TransactionManager
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	counterRepo repository.CounterRepository,
	txManager repository.TransactionManager,
) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		counterRepo:  counterRepo,
		txManager:    txManager,
	}
}

func (s *supplierService) CreateSupplier(ctx context.Context, req SupplierRequest) (*model.Supplier, error) {
	var supplier model.Supplier
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplierID, err := s.counterRepo.NextBusinessID(txCtx, "SUP")
		if err != nil {
			return fmt.Errorf("failed to allocate supplier id: %w", err)
		}
		supplier = model.Supplier{
			SupplierID:    supplierID,
			Name:          req.Name,
			ContactPerson: req.ContactPerson,
			Email:         req.Email,
			Phone:         req.Phone,
			Address:       req.Address,
			IsActive:      true,
		}
		if err := s.supplierRepo.Create(txCtx, &supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id string, req SupplierRequest) (*model.Supplier, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = req.Name
	supplier.ContactPerson = req.ContactPerson
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id string) error {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return err
	}
	if err := s.supplierRepo.Delete(ctx, supplier.ID); err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSupplierNotFound
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to fetch supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, page, limit int, search string) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.supplierRepo.List(ctx, page, limit, search)
}
