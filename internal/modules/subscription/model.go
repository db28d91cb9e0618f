package subscription

import (
	"time"

	"github.com/google/uuid"
)

// ── Service plan ──────────────────────────────────────────────────────────────

// ServicePlan is a sellable internet package.
type ServicePlan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SpeedMbps    int       `json:"speed_mbps"`
	MonthlyPrice float64   `json:"monthly_price"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ── Customer service ──────────────────────────────────────────────────────────

// ServiceStatus represents the lifecycle state of a provisioned service.
type ServiceStatus string

const (
	ServiceActive     ServiceStatus = "ACTIVE"
	ServiceSuspended  ServiceStatus = "SUSPENDED"
	ServiceTerminated ServiceStatus = "TERMINATED"
)

// validServiceTransitions defines the allowed service state machine moves.
// TERMINATED is terminal.
var validServiceTransitions = map[ServiceStatus][]ServiceStatus{
	ServiceActive:     {ServiceSuspended, ServiceTerminated},
	ServiceSuspended:  {ServiceActive, ServiceTerminated},
	ServiceTerminated: {},
}

// CanTransitionService returns true if the service transition is valid.
func CanTransitionService(current, next ServiceStatus) bool {
	allowed, ok := validServiceTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// CustomerService is a plan provisioned for a subscriber.
type CustomerService struct {
	ID              uuid.UUID     `json:"id"`
	CustomerID      uuid.UUID     `json:"customer_id"`
	PlanID          uuid.UUID     `json:"plan_id"`
	PlanName        string        `json:"plan_name,omitempty"`
	PlanPrice       float64       `json:"plan_price,omitempty"`
	Status          ServiceStatus `json:"status"`
	NextBillingDate time.Time     `json:"next_billing_date"`
	IPAddressID     *uuid.UUID    `json:"ip_address_id,omitempty"`
	InstalledAt     time.Time     `json:"installed_at"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CreatePlanRequest is the payload for creating a service plan.
type CreatePlanRequest struct {
	Name         string  `json:"name"`
	SpeedMbps    int     `json:"speed_mbps"`
	MonthlyPrice float64 `json:"monthly_price"`
	Description  string  `json:"description,omitempty"`
}

// SubscribeRequest is the payload for provisioning a plan for a customer.
type SubscribeRequest struct {
	CustomerID string `json:"customer_id"`
	PlanID     string `json:"plan_id"`
}

// ChangePlanRequest is the payload for moving a service to another plan.
type ChangePlanRequest struct {
	PlanID string `json:"plan_id"`
}

// UpdateServiceStatusRequest is the payload for a service transition.
type UpdateServiceStatusRequest struct {
	Status string `json:"status"`
}
