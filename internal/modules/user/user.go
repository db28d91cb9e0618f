package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role controls what back-office screens a staff account may use.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleFinance Role = "FINANCE"
	RoleSupport Role = "SUPPORT"
	RoleTech    Role = "TECH"
)

// User is a back-office staff account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines data access for staff accounts.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	SetActive(ctx context.Context, id string, active bool) error
}
