package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines data access for plans and provisioned services.
type Repository interface {
	// Plans
	CreatePlan(ctx context.Context, plan *ServicePlan) error
	GetPlanByID(ctx context.Context, id string) (*ServicePlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*ServicePlan, error)
	UpdatePlan(ctx context.Context, plan *ServicePlan) error
	SetPlanActive(ctx context.Context, id string, active bool) error

	// Customer services
	CreateService(ctx context.Context, svc *CustomerService) error
	GetServiceByID(ctx context.Context, id string) (*CustomerService, error)
	ListServicesByCustomer(ctx context.Context, customerID string) ([]*CustomerService, error)
	ListServicesDueForBilling(ctx context.Context, asOf time.Time) ([]*CustomerService, error)
	UpdateServiceStatus(ctx context.Context, id string, status ServiceStatus) error
	UpdateServicePlan(ctx context.Context, id string, planID string) error
	UpdateNextBillingDate(ctx context.Context, id string, next time.Time) error
	SetServiceIP(ctx context.Context, id string, ipID *uuid.UUID) error
}
