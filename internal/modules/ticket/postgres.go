package ticket

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateTicket(ctx context.Context, t *Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (id, customer_id, subject, description, priority, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.CustomerID, t.Subject, t.Description, t.Priority, t.Status)
	return err
}

const selectTicketSQL = `
	SELECT id, customer_id, subject, COALESCE(description, ''), priority, status,
	       assignee_id, resolved_at, created_at, updated_at
	FROM tickets`

func (r *postgresRepo) GetTicketByID(ctx context.Context, id string) (*Ticket, error) {
	return r.scanTicket(r.db.QueryRowContext(ctx, selectTicketSQL+" WHERE id = $1", id))
}

func (r *postgresRepo) ListTickets(ctx context.Context, status, customerID string) ([]*Ticket, error) {
	query := selectTicketSQL + " WHERE 1=1"
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		query += " AND status = $1"
	}
	if customerID != "" {
		args = append(args, customerID)
		if len(args) == 2 {
			query += " AND customer_id = $2"
		} else {
			query += " AND customer_id = $1"
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		t, err := r.scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if tickets == nil {
		tickets = []*Ticket{}
	}
	return tickets, rows.Err()
}

func (r *postgresRepo) UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) error {
	if status == StatusResolved {
		_, err := r.db.ExecContext(ctx, `
			UPDATE tickets SET status=$1, resolved_at=NOW(), updated_at=NOW() WHERE id=$2`, status, id)
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func (r *postgresRepo) AssignTicket(ctx context.Context, id string, assigneeID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET assignee_id=$1, updated_at=NOW() WHERE id=$2`, assigneeID, id)
	return err
}

func (r *postgresRepo) AddComment(ctx context.Context, c *Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ticket_comments (id, ticket_id, author_id, body)
		VALUES ($1,$2,$3,$4)`,
		c.ID, c.TicketID, c.AuthorID, c.Body)
	return err
}

func (r *postgresRepo) ListComments(ctx context.Context, ticketID string) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ticket_id, author_id, body, created_at
		FROM ticket_comments WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if comments == nil {
		comments = []*Comment{}
	}
	return comments, rows.Err()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanTicket(row rowScanner) (*Ticket, error) {
	t := &Ticket{}
	var assignee uuid.NullUUID
	var resolvedAt sql.NullTime
	err := row.Scan(&t.ID, &t.CustomerID, &t.Subject, &t.Description, &t.Priority, &t.Status,
		&assignee, &resolvedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if assignee.Valid {
		t.AssigneeID = &assignee.UUID
	}
	if resolvedAt.Valid {
		t.ResolvedAt = &resolvedAt.Time
	}
	return t, nil
}
