package subscription

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	plans    map[string]*ServicePlan
	services map[string]*CustomerService
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:    map[string]*ServicePlan{},
		services: map[string]*CustomerService{},
	}
}

func (f *fakeRepo) CreatePlan(_ context.Context, p *ServicePlan) error {
	f.plans[p.ID.String()] = p
	return nil
}

func (f *fakeRepo) GetPlanByID(_ context.Context, id string) (*ServicePlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeRepo) ListPlans(_ context.Context, activeOnly bool) ([]*ServicePlan, error) {
	var out []*ServicePlan
	for _, p := range f.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) UpdatePlan(_ context.Context, p *ServicePlan) error {
	f.plans[p.ID.String()] = p
	return nil
}

func (f *fakeRepo) SetPlanActive(_ context.Context, id string, active bool) error {
	f.plans[id].IsActive = active
	return nil
}

func (f *fakeRepo) CreateService(_ context.Context, s *CustomerService) error {
	f.services[s.ID.String()] = s
	return nil
}

func (f *fakeRepo) GetServiceByID(_ context.Context, id string) (*CustomerService, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeRepo) ListServicesByCustomer(_ context.Context, customerID string) ([]*CustomerService, error) {
	var out []*CustomerService
	for _, s := range f.services {
		if s.CustomerID.String() == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListServicesDueForBilling(_ context.Context, asOf time.Time) ([]*CustomerService, error) {
	var out []*CustomerService
	for _, s := range f.services {
		if s.Status == ServiceActive && !s.NextBillingDate.After(asOf) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateServiceStatus(_ context.Context, id string, status ServiceStatus) error {
	f.services[id].Status = status
	return nil
}

func (f *fakeRepo) UpdateServicePlan(_ context.Context, id string, planID string) error {
	f.services[id].PlanID = uuid.MustParse(planID)
	return nil
}

func (f *fakeRepo) UpdateNextBillingDate(_ context.Context, id string, next time.Time) error {
	f.services[id].NextBillingDate = next
	return nil
}

func (f *fakeRepo) SetServiceIP(_ context.Context, id string, ipID *uuid.UUID) error {
	f.services[id].IPAddressID = ipID
	return nil
}

func seedPlan(f *fakeRepo, name string, price float64, active bool) *ServicePlan {
	p := &ServicePlan{ID: uuid.New(), Name: name, SpeedMbps: 20, MonthlyPrice: price, IsActive: active}
	f.plans[p.ID.String()] = p
	return p
}

func TestSubscribe(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	plan := seedPlan(repo, "Home 20", 2500, true)

	t.Run("provisions an active service with a billing date one month out", func(t *testing.T) {
		cs, err := svc.Subscribe(t.Context(), SubscribeRequest{
			CustomerID: uuid.NewString(),
			PlanID:     plan.ID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, ServiceActive, cs.Status)
		assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), cs.NextBillingDate, time.Minute)
	})

	t.Run("rejects a retired plan", func(t *testing.T) {
		retired := seedPlan(repo, "Legacy 5", 1000, false)
		_, err := svc.Subscribe(t.Context(), SubscribeRequest{
			CustomerID: uuid.NewString(),
			PlanID:     retired.ID.String(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retired")
	})
}

func TestServiceStateMachine(t *testing.T) {
	cases := []struct {
		from, to ServiceStatus
		allowed  bool
	}{
		{ServiceActive, ServiceSuspended, true},
		{ServiceActive, ServiceTerminated, true},
		{ServiceSuspended, ServiceActive, true},
		{ServiceSuspended, ServiceTerminated, true},
		{ServiceTerminated, ServiceActive, false},
		{ServiceTerminated, ServiceSuspended, false},
		{ServiceActive, ServiceActive, false},
	}
	for _, tc := range cases {
		got := CanTransitionService(tc.from, tc.to)
		if got != tc.allowed {
			t.Errorf("CanTransitionService(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	plan := seedPlan(repo, "Home 20", 2500, true)

	cs, err := svc.Subscribe(t.Context(), SubscribeRequest{
		CustomerID: uuid.NewString(),
		PlanID:     plan.ID.String(),
	})
	require.NoError(t, err)

	t.Run("active to suspended is allowed", func(t *testing.T) {
		updated, err := svc.UpdateStatus(t.Context(), cs.ID.String(), UpdateServiceStatusRequest{Status: "suspended"})
		require.NoError(t, err)
		assert.Equal(t, ServiceSuspended, updated.Status)
	})

	t.Run("terminated is terminal", func(t *testing.T) {
		_, err := svc.UpdateStatus(t.Context(), cs.ID.String(), UpdateServiceStatusRequest{Status: "TERMINATED"})
		require.NoError(t, err)

		_, err = svc.UpdateStatus(t.Context(), cs.ID.String(), UpdateServiceStatusRequest{Status: "ACTIVE"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot transition")
	})
}

func TestChangePlan(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	home := seedPlan(repo, "Home 20", 2500, true)
	biz := seedPlan(repo, "Business 100", 9500, true)

	cs, err := svc.Subscribe(t.Context(), SubscribeRequest{
		CustomerID: uuid.NewString(),
		PlanID:     home.ID.String(),
	})
	require.NoError(t, err)

	t.Run("moves the service to the new plan", func(t *testing.T) {
		updated, err := svc.ChangePlan(t.Context(), cs.ID.String(), ChangePlanRequest{PlanID: biz.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, biz.ID, updated.PlanID)
	})

	t.Run("rejects the plan the service is already on", func(t *testing.T) {
		_, err := svc.ChangePlan(t.Context(), cs.ID.String(), ChangePlanRequest{PlanID: biz.ID.String()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already on this plan")
	})

	t.Run("rejects terminated services", func(t *testing.T) {
		_, err := svc.UpdateStatus(t.Context(), cs.ID.String(), UpdateServiceStatusRequest{Status: "TERMINATED"})
		require.NoError(t, err)

		_, err = svc.ChangePlan(t.Context(), cs.ID.String(), ChangePlanRequest{PlanID: home.ID.String()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "terminated")
	})
}

func TestAdvanceBillingDate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	plan := seedPlan(repo, "Home 20", 2500, true)

	cs, err := svc.Subscribe(t.Context(), SubscribeRequest{
		CustomerID: uuid.NewString(),
		PlanID:     plan.ID.String(),
	})
	require.NoError(t, err)

	before := cs.NextBillingDate
	updated, err := svc.AdvanceBillingDate(t.Context(), cs.ID.String())
	require.NoError(t, err)
	assert.Equal(t, before.AddDate(0, 1, 0), updated.NextBillingDate)
}
