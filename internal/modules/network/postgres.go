package network

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Devices ───────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateDevice(ctx context.Context, d *Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO network_devices (id, name, type, model, ip_address, location, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.Name, d.Type, d.Model, d.IPAddress, d.Location, d.Status)
	return err
}

const selectDeviceSQL = `
	SELECT id, name, type, COALESCE(model, ''), COALESCE(ip_address, ''), COALESCE(location, ''),
	       status, last_seen_at, created_at, updated_at
	FROM network_devices`

func (r *postgresRepo) GetDeviceByID(ctx context.Context, id string) (*Device, error) {
	return r.scanDevice(r.db.QueryRowContext(ctx, selectDeviceSQL+" WHERE id = $1", id))
}

func (r *postgresRepo) ListDevices(ctx context.Context, status string) ([]*Device, error) {
	query := selectDeviceSQL + " ORDER BY name"
	args := []interface{}{}
	if status != "" {
		query = selectDeviceSQL + " WHERE status = $1 ORDER BY name"
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		d, err := r.scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if devices == nil {
		devices = []*Device{}
	}
	return devices, rows.Err()
}

func (r *postgresRepo) UpdateDeviceStatus(ctx context.Context, id string, status DeviceStatus, touchLastSeen bool) error {
	if touchLastSeen {
		_, err := r.db.ExecContext(ctx, `
			UPDATE network_devices SET status=$1, last_seen_at=NOW(), updated_at=NOW() WHERE id=$2`, status, id)
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE network_devices SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

// ── IP pool ───────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateIPs(ctx context.Context, ips []*IPAddress) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ip_addresses (id, address, subnet_cidr, status)
		VALUES ($1,$2,$3,$4)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ip := range ips {
		if _, err := stmt.ExecContext(ctx, ip.ID, ip.Address, ip.SubnetCIDR, ip.Status); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const selectIPSQL = `
	SELECT id, address, subnet_cidr, status, customer_service_id, assigned_at, created_at, updated_at
	FROM ip_addresses`

func (r *postgresRepo) GetIPByID(ctx context.Context, id string) (*IPAddress, error) {
	return r.scanIP(r.db.QueryRowContext(ctx, selectIPSQL+" WHERE id = $1", id))
}

func (r *postgresRepo) ListIPs(ctx context.Context, subnetCIDR, status string) ([]*IPAddress, error) {
	query := selectIPSQL + " WHERE 1=1"
	args := []interface{}{}
	if subnetCIDR != "" {
		args = append(args, subnetCIDR)
		query += " AND subnet_cidr = $1"
	}
	if status != "" {
		args = append(args, status)
		if len(args) == 2 {
			query += " AND status = $2"
		} else {
			query += " AND status = $1"
		}
	}
	query += " ORDER BY address"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ips []*IPAddress
	for rows.Next() {
		ip, err := r.scanIP(rows)
		if err != nil {
			return nil, err
		}
		ips = append(ips, ip)
	}
	if ips == nil {
		ips = []*IPAddress{}
	}
	return ips, rows.Err()
}

// AssignIP claims the row only when it is still AVAILABLE. The status guard in
// the WHERE clause makes concurrent assignment attempts race-safe.
func (r *postgresRepo) AssignIP(ctx context.Context, id string, serviceID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ip_addresses
		SET status='ASSIGNED', customer_service_id=$1, assigned_at=NOW(), updated_at=NOW()
		WHERE id=$2 AND status='AVAILABLE'`, serviceID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *postgresRepo) ReserveIP(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ip_addresses SET status='RESERVED', updated_at=NOW()
		WHERE id=$1 AND status='AVAILABLE'`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *postgresRepo) ReleaseIP(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ip_addresses
		SET status='AVAILABLE', customer_service_id=NULL, assigned_at=NULL, updated_at=NOW()
		WHERE id=$1`, id)
	return err
}

// ── Scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanDevice(row rowScanner) (*Device, error) {
	d := &Device{}
	var lastSeen sql.NullTime
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Model, &d.IPAddress, &d.Location,
		&d.Status, &lastSeen, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		d.LastSeenAt = &lastSeen.Time
	}
	return d, nil
}

func (r *postgresRepo) scanIP(row rowScanner) (*IPAddress, error) {
	ip := &IPAddress{}
	var serviceID uuid.NullUUID
	var assignedAt sql.NullTime
	err := row.Scan(&ip.ID, &ip.Address, &ip.SubnetCIDR, &ip.Status, &serviceID, &assignedAt,
		&ip.CreatedAt, &ip.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if serviceID.Valid {
		ip.CustomerServiceID = &serviceID.UUID
	}
	if assignedAt.Valid {
		ip.AssignedAt = &assignedAt.Time
	}
	return ip, nil
}
