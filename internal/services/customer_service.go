// internal/services/customer_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/utils"
)

type CustomerService struct {
	table storage.Table[models.Customer]
}

type CreateCustomerRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,max=50"`
	DeliveryAddress string `json:"delivery_address" validate:"omitempty,max=500"`
}

func NewCustomerService(table storage.Table[models.Customer]) *CustomerService {
	return &CustomerService{table: table}
}

func (s *CustomerService) GetCustomer(ctx context.Context, email string) (*models.Customer, error) {
	key := models.NormalizeEmail(email)
	customer, err := s.table.Get(ctx, models.CustomerPartition, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("customer %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*models.Customer, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	email := models.NormalizeEmail(req.Email)
	customer := &models.Customer{
		TableEntity:     models.TableEntity{PartitionKey: models.CustomerPartition, RowKey: email},
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           email,
		Phone:           req.Phone,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.table.Insert(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers, err := storage.Collect(s.table.Query(ctx, storage.Filter[models.Customer]{
		PartitionKey: models.CustomerPartition,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// DeliveryAddress returns the stored address, or the default when the
// customer has no profile or no address on file.
func (s *CustomerService) DeliveryAddress(ctx context.Context, email string) (string, error) {
	customer, err := s.GetCustomer(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.DefaultDeliveryAddress, nil
		}
		return "", err
	}
	if customer.DeliveryAddress == "" {
		return models.DefaultDeliveryAddress, nil
	}
	return customer.DeliveryAddress, nil
}
