package ticket

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a support ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
)

// validTransitions defines the allowed ticket state machine moves.
// CLOSED is terminal; a resolved ticket can be reopened.
var validTransitions = map[TicketStatus][]TicketStatus{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed, StatusOpen},
	StatusResolved:   {StatusClosed, StatusOpen},
	StatusClosed:     {},
}

// CanTransition returns true if the ticket transition is valid.
func CanTransition(current, next TicketStatus) bool {
	allowed, ok := validTransitions[current]
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

// Priority ranks how urgently a ticket needs attention.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Ticket represents a customer support ticket.
type Ticket struct {
	ID          uuid.UUID    `json:"id"`
	CustomerID  uuid.UUID    `json:"customer_id"`
	Subject     string       `json:"subject"`
	Description string       `json:"description,omitempty"`
	Priority    Priority     `json:"priority"`
	Status      TicketStatus `json:"status"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Comment is a note on a ticket from staff or the customer.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TicketID  uuid.UUID `json:"ticket_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTicketRequest is the payload for opening a ticket.
type CreateTicketRequest struct {
	CustomerID  string `json:"customer_id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"` // defaults to MEDIUM
}

// UpdateStatusRequest is the payload for a ticket transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignRequest is the payload for assigning a ticket to a staff member.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// AddCommentRequest is the payload for commenting on a ticket.
type AddCommentRequest struct {
	AuthorID string `json:"author_id"`
	Body     string `json:"body"`
}
