package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	repo Repository
}

// NewService creates a new staff-account service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

var knownRoles = map[Role]bool{
	RoleAdmin: true, RoleFinance: true, RoleSupport: true, RoleTech: true,
}

func (s *service) RegisterUser(ctx context.Context, email, password, fullName, role string) (*User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	r := Role(strings.ToUpper(role))
	if r == "" {
		r = RoleSupport
	}
	if !knownRoles[r] {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hashed),
		FullName:     fullName,
		Role:         r,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *service) Deactivate(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}
