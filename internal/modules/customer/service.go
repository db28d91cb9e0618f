package customer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	CreateCustomer(ctx context.Context, firstName, lastName, email, phone, address string) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*Customer, error)
	ListCustomers(ctx context.Context, status string) ([]*Customer, error)
	UpdateContact(ctx context.Context, id, email, phone, address string) (*Customer, error)
	AdjustBalance(ctx context.Context, id string, delta float64) (float64, error)
	Suspend(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	Terminate(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateCustomer(ctx context.Context, firstName, lastName, email, phone, address string) (*Customer, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, fmt.Errorf("first and last name are required")
	}
	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("phone is required")
	}

	c := &Customer{
		ID:            uuid.New(),
		AccountNumber: generateAccountNumber(),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Phone:         phone,
		Address:       address,
		Status:        StatusActive,
	}

	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetCustomerByID(ctx, id)
}

func (s *service) GetByAccountNumber(ctx context.Context, accountNumber string) (*Customer, error) {
	return s.repo.GetCustomerByAccountNumber(ctx, accountNumber)
}

func (s *service) ListCustomers(ctx context.Context, status string) ([]*Customer, error) {
	return s.repo.ListCustomers(ctx, status)
}

func (s *service) UpdateContact(ctx context.Context, id, email, phone, address string) (*Customer, error) {
	c, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email != "" {
		c.Email = email
	}
	if phone != "" {
		c.Phone = phone
	}
	if address != "" {
		c.Address = address
	}
	if err := s.repo.UpdateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return c, nil
}

func (s *service) AdjustBalance(ctx context.Context, id string, delta float64) (float64, error) {
	if delta == 0 {
		return 0, fmt.Errorf("adjustment amount must be non-zero")
	}
	return s.repo.AdjustBalance(ctx, id, delta)
}

// Allowed status transitions. TERMINATED is terminal.
var transitions = map[Status][]Status{
	StatusActive:    {StatusSuspended, StatusTerminated},
	StatusSuspended: {StatusActive, StatusTerminated},
}

func (s *service) Suspend(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusSuspended)
}

func (s *service) Activate(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusActive)
}

func (s *service) Terminate(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusTerminated)
}

func (s *service) transition(ctx context.Context, id string, target Status) error {
	c, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return err
	}
	for _, next := range transitions[c.Status] {
		if next == target {
			return s.repo.UpdateStatus(ctx, id, target)
		}
	}
	return fmt.Errorf("invalid status transition from %s to %s", c.Status, target)
}

func generateAccountNumber() string {
	return "ACC-" + strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
}
