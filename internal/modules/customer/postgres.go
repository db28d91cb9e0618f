package customer

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL subscriber repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateCustomer(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customers (id, account_number, first_name, last_name, email, phone, address, status, account_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.AccountNumber, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.Status, c.AccountBalance)
	return err
}

const selectCustomerSQL = `
	SELECT id, account_number, first_name, last_name, COALESCE(email, ''), phone,
	       COALESCE(address, ''), status, account_balance, created_at, updated_at
	FROM customers`

func (r *postgresRepository) GetCustomerByID(ctx context.Context, id string) (*Customer, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return r.scan(r.db.QueryRowContext(ctx, selectCustomerSQL+" WHERE id = $1", parsed))
}

func (r *postgresRepository) GetCustomerByAccountNumber(ctx context.Context, accountNumber string) (*Customer, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectCustomerSQL+" WHERE account_number = $1", accountNumber))
}

func (r *postgresRepository) ListCustomers(ctx context.Context, status string) ([]*Customer, error) {
	query := selectCustomerSQL + " ORDER BY created_at DESC"
	args := []interface{}{}
	if status != "" {
		query = selectCustomerSQL + " WHERE status = $1 ORDER BY created_at DESC"
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*Customer
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if customers == nil {
		customers = []*Customer{}
	}
	return customers, rows.Err()
}

func (r *postgresRepository) UpdateContact(ctx context.Context, c *Customer) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE customers SET email=$1, phone=$2, address=$3, updated_at=NOW() WHERE id=$4`,
		c.Email, c.Phone, c.Address, c.ID)
	return err
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE customers SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func (r *postgresRepository) AdjustBalance(ctx context.Context, id string, delta float64) (float64, error) {
	var balance float64
	err := r.db.QueryRowContext(ctx, `
		UPDATE customers SET account_balance = account_balance + $1, updated_at=NOW()
		WHERE id = $2
		RETURNING account_balance`, delta, id).Scan(&balance)
	return balance, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepository) scan(row rowScanner) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(&c.ID, &c.AccountNumber, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Address, &c.Status, &c.AccountBalance, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
