package ticket

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for tickets and comments.
type Repository interface {
	CreateTicket(ctx context.Context, t *Ticket) error
	GetTicketByID(ctx context.Context, id string) (*Ticket, error)
	ListTickets(ctx context.Context, status, customerID string) ([]*Ticket, error)
	UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) error
	AssignTicket(ctx context.Context, id string, assigneeID uuid.UUID) error

	AddComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, ticketID string) ([]*Comment, error)
}
