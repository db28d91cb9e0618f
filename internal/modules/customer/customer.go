package customer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a subscriber account.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusTerminated Status = "TERMINATED"
)

// Customer represents an ISP subscriber.
// @Description Subscriber account information
// @Description with account number, contact details, status, and running balance
type Customer struct {
	ID             uuid.UUID `json:"id"`
	AccountNumber  string    `json:"account_number"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address,omitempty"`
	Status         Status    `json:"status"`
	AccountBalance float64   `json:"account_balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository defines the interface for subscriber data storage.
type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomerByID(ctx context.Context, id string) (*Customer, error)
	GetCustomerByAccountNumber(ctx context.Context, accountNumber string) (*Customer, error)
	ListCustomers(ctx context.Context, status string) ([]*Customer, error)
	UpdateContact(ctx context.Context, c *Customer) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	AdjustBalance(ctx context.Context, id string, delta float64) (float64, error)
}
