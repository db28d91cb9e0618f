package subscription

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Plans ─────────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreatePlan(ctx context.Context, plan *ServicePlan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO service_plans (id, name, speed_mbps, monthly_price, description, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		plan.ID, plan.Name, plan.SpeedMbps, plan.MonthlyPrice, plan.Description, plan.IsActive)
	return err
}

const selectPlanSQL = `
	SELECT id, name, speed_mbps, monthly_price, COALESCE(description, ''), is_active, created_at, updated_at
	FROM service_plans`

func (r *postgresRepo) GetPlanByID(ctx context.Context, id string) (*ServicePlan, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return r.scanPlan(r.db.QueryRowContext(ctx, selectPlanSQL+" WHERE id = $1", parsed))
}

func (r *postgresRepo) ListPlans(ctx context.Context, activeOnly bool) ([]*ServicePlan, error) {
	query := selectPlanSQL + " ORDER BY monthly_price"
	if activeOnly {
		query = selectPlanSQL + " WHERE is_active ORDER BY monthly_price"
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*ServicePlan
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if plans == nil {
		plans = []*ServicePlan{}
	}
	return plans, rows.Err()
}

func (r *postgresRepo) UpdatePlan(ctx context.Context, plan *ServicePlan) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE service_plans
		SET name=$1, speed_mbps=$2, monthly_price=$3, description=$4, updated_at=NOW()
		WHERE id=$5`,
		plan.Name, plan.SpeedMbps, plan.MonthlyPrice, plan.Description, plan.ID)
	return err
}

func (r *postgresRepo) SetPlanActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE service_plans SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	return err
}

// ── Customer services ─────────────────────────────────────────────────────────

func (r *postgresRepo) CreateService(ctx context.Context, svc *CustomerService) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customer_services
		  (id, customer_id, plan_id, status, next_billing_date, ip_address_id, installed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		svc.ID, svc.CustomerID, svc.PlanID, svc.Status, svc.NextBillingDate, svc.IPAddressID, svc.InstalledAt)
	return err
}

const selectServiceSQL = `
	SELECT cs.id, cs.customer_id, cs.plan_id, sp.name, sp.monthly_price,
	       cs.status, cs.next_billing_date, cs.ip_address_id, cs.installed_at,
	       cs.created_at, cs.updated_at
	FROM customer_services cs
	JOIN service_plans sp ON sp.id = cs.plan_id`

func (r *postgresRepo) GetServiceByID(ctx context.Context, id string) (*CustomerService, error) {
	return r.scanService(r.db.QueryRowContext(ctx, selectServiceSQL+" WHERE cs.id = $1", id))
}

func (r *postgresRepo) ListServicesByCustomer(ctx context.Context, customerID string) ([]*CustomerService, error) {
	rows, err := r.db.QueryContext(ctx,
		selectServiceSQL+" WHERE cs.customer_id = $1 ORDER BY cs.installed_at", customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *postgresRepo) ListServicesDueForBilling(ctx context.Context, asOf time.Time) ([]*CustomerService, error) {
	rows, err := r.db.QueryContext(ctx,
		selectServiceSQL+" WHERE cs.status = 'ACTIVE' AND cs.next_billing_date <= $1", asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *postgresRepo) UpdateServiceStatus(ctx context.Context, id string, status ServiceStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customer_services SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func (r *postgresRepo) UpdateServicePlan(ctx context.Context, id string, planID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customer_services SET plan_id=$1, updated_at=NOW() WHERE id=$2`, planID, id)
	return err
}

func (r *postgresRepo) UpdateNextBillingDate(ctx context.Context, id string, next time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customer_services SET next_billing_date=$1, updated_at=NOW() WHERE id=$2`, next, id)
	return err
}

func (r *postgresRepo) SetServiceIP(ctx context.Context, id string, ipID *uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customer_services SET ip_address_id=$1, updated_at=NOW() WHERE id=$2`, ipID, id)
	return err
}

// ── Scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanPlan(row rowScanner) (*ServicePlan, error) {
	p := &ServicePlan{}
	err := row.Scan(&p.ID, &p.Name, &p.SpeedMbps, &p.MonthlyPrice, &p.Description,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) scanService(row rowScanner) (*CustomerService, error) {
	s := &CustomerService{}
	var ipID uuid.NullUUID
	err := row.Scan(&s.ID, &s.CustomerID, &s.PlanID, &s.PlanName, &s.PlanPrice,
		&s.Status, &s.NextBillingDate, &ipID, &s.InstalledAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ipID.Valid {
		s.IPAddressID = &ipID.UUID
	}
	return s, nil
}

func (r *postgresRepo) collect(rows *sql.Rows) ([]*CustomerService, error) {
	var svcs []*CustomerService
	for rows.Next() {
		s, err := r.scanService(rows)
		if err != nil {
			return nil, err
		}
		svcs = append(svcs, s)
	}
	if svcs == nil {
		svcs = []*CustomerService{}
	}
	return svcs, rows.Err()
}
