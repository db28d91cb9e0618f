package user

import "context"

// Service defines the interface for staff-account business logic.
type Service interface {
	RegisterUser(ctx context.Context, email, password, fullName, role string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	Deactivate(ctx context.Context, id string) error
}
