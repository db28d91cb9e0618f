package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service defines plan and provisioning business logic.
type Service interface {
	// Plans
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*ServicePlan, error)
	GetPlan(ctx context.Context, id string) (*ServicePlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*ServicePlan, error)
	RetirePlan(ctx context.Context, id string) (*ServicePlan, error)

	// Customer services
	Subscribe(ctx context.Context, req SubscribeRequest) (*CustomerService, error)
	GetService(ctx context.Context, id string) (*CustomerService, error)
	ListCustomerServices(ctx context.Context, customerID string) ([]*CustomerService, error)
	ChangePlan(ctx context.Context, serviceID string, req ChangePlanRequest) (*CustomerService, error)
	UpdateStatus(ctx context.Context, serviceID string, req UpdateServiceStatusRequest) (*CustomerService, error)
	AdvanceBillingDate(ctx context.Context, serviceID string) (*CustomerService, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

// ── Plans ─────────────────────────────────────────────────────────────────────

func (s *service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*ServicePlan, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.SpeedMbps <= 0 {
		return nil, fmt.Errorf("speed_mbps must be positive")
	}
	if req.MonthlyPrice < 0 {
		return nil, fmt.Errorf("monthly_price cannot be negative")
	}

	plan := &ServicePlan{
		ID:           uuid.New(),
		Name:         req.Name,
		SpeedMbps:    req.SpeedMbps,
		MonthlyPrice: req.MonthlyPrice,
		Description:  req.Description,
		IsActive:     true,
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *service) GetPlan(ctx context.Context, id string) (*ServicePlan, error) {
	return s.repo.GetPlanByID(ctx, id)
}

func (s *service) ListPlans(ctx context.Context, activeOnly bool) ([]*ServicePlan, error) {
	return s.repo.ListPlans(ctx, activeOnly)
}

func (s *service) RetirePlan(ctx context.Context, id string) (*ServicePlan, error) {
	plan, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("plan not found: %w", err)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan is already retired")
	}
	if err := s.repo.SetPlanActive(ctx, id, false); err != nil {
		return nil, err
	}
	plan.IsActive = false
	return plan, nil
}

// ── Customer services ─────────────────────────────────────────────────────────

func (s *service) Subscribe(ctx context.Context, req SubscribeRequest) (*CustomerService, error) {
	if req.CustomerID == "" {
		return nil, fmt.Errorf("customer_id is required")
	}
	if req.PlanID == "" {
		return nil, fmt.Errorf("plan_id is required")
	}

	plan, err := s.repo.GetPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("plan not found: %w", err)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan %s is retired and cannot be subscribed", plan.Name)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id: %w", err)
	}

	now := time.Now()
	svc := &CustomerService{
		ID:              uuid.New(),
		CustomerID:      customerID,
		PlanID:          plan.ID,
		Status:          ServiceActive,
		NextBillingDate: now.AddDate(0, 1, 0),
		InstalledAt:     now,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return s.repo.GetServiceByID(ctx, svc.ID.String())
}

func (s *service) GetService(ctx context.Context, id string) (*CustomerService, error) {
	return s.repo.GetServiceByID(ctx, id)
}

func (s *service) ListCustomerServices(ctx context.Context, customerID string) ([]*CustomerService, error) {
	return s.repo.ListServicesByCustomer(ctx, customerID)
}

func (s *service) ChangePlan(ctx context.Context, serviceID string, req ChangePlanRequest) (*CustomerService, error) {
	if req.PlanID == "" {
		return nil, fmt.Errorf("plan_id is required")
	}

	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("service not found: %w", err)
	}
	if svc.Status == ServiceTerminated {
		return nil, fmt.Errorf("cannot change plan on a terminated service")
	}
	if svc.PlanID.String() == req.PlanID {
		return nil, fmt.Errorf("service is already on this plan")
	}

	plan, err := s.repo.GetPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("new plan not found: %w", err)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan %s is retired", plan.Name)
	}

	if err := s.repo.UpdateServicePlan(ctx, serviceID, req.PlanID); err != nil {
		return nil, err
	}
	return s.repo.GetServiceByID(ctx, serviceID)
}

func (s *service) UpdateStatus(ctx context.Context, serviceID string, req UpdateServiceStatusRequest) (*CustomerService, error) {
	if req.Status == "" {
		return nil, fmt.Errorf("status is required")
	}

	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("service not found: %w", err)
	}

	next := ServiceStatus(strings.ToUpper(req.Status))
	if !CanTransitionService(svc.Status, next) {
		return nil, fmt.Errorf("cannot transition service from %s to %s", svc.Status, next)
	}

	if err := s.repo.UpdateServiceStatus(ctx, serviceID, next); err != nil {
		return nil, err
	}
	return s.repo.GetServiceByID(ctx, serviceID)
}

// AdvanceBillingDate rolls next_billing_date forward one month. It is called
// by the invoice generation flow after a service has been billed.
func (s *service) AdvanceBillingDate(ctx context.Context, serviceID string) (*CustomerService, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("service not found: %w", err)
	}
	next := svc.NextBillingDate.AddDate(0, 1, 0)
	if err := s.repo.UpdateNextBillingDate(ctx, serviceID, next); err != nil {
		return nil, err
	}
	svc.NextBillingDate = next
	return svc, nil
}
