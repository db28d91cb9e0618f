package ticket

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service defines support ticket business logic.
type Service interface {
	CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error)
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	ListTickets(ctx context.Context, status, customerID string) ([]*Ticket, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Ticket, error)
	Assign(ctx context.Context, id string, req AssignRequest) (*Ticket, error)
	AddComment(ctx context.Context, ticketID string, req AddCommentRequest) (*Comment, error)
	ListComments(ctx context.Context, ticketID string) ([]*Comment, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("subject is required")
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id: %w", err)
	}

	priority := PriorityMedium
	if req.Priority != "" {
		priority = Priority(strings.ToUpper(req.Priority))
		switch priority {
		case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		default:
			return nil, fmt.Errorf("unknown priority: %s", req.Priority)
		}
	}

	t := &Ticket{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    priority,
		Status:      StatusOpen,
	}
	if err := s.repo.CreateTicket(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	return s.repo.GetTicketByID(ctx, id)
}

func (s *service) ListTickets(ctx context.Context, status, customerID string) ([]*Ticket, error) {
	return s.repo.ListTickets(ctx, strings.ToUpper(status), customerID)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Ticket, error) {
	if req.Status == "" {
		return nil, fmt.Errorf("status is required")
	}

	t, err := s.repo.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}

	next := TicketStatus(strings.ToUpper(req.Status))
	if !CanTransition(t.Status, next) {
		return nil, fmt.Errorf("cannot transition ticket from %s to %s", t.Status, next)
	}

	if err := s.repo.UpdateTicketStatus(ctx, id, next); err != nil {
		return nil, err
	}
	return s.repo.GetTicketByID(ctx, id)
}

func (s *service) Assign(ctx context.Context, id string, req AssignRequest) (*Ticket, error) {
	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("invalid assignee_id: %w", err)
	}

	t, err := s.repo.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}
	if t.Status == StatusClosed {
		return nil, fmt.Errorf("cannot assign a closed ticket")
	}

	if err := s.repo.AssignTicket(ctx, id, assigneeID); err != nil {
		return nil, err
	}
	return s.repo.GetTicketByID(ctx, id)
}

func (s *service) AddComment(ctx context.Context, ticketID string, req AddCommentRequest) (*Comment, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("body is required")
	}
	authorID, err := uuid.Parse(req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author_id: %w", err)
	}

	t, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}
	if t.Status == StatusClosed {
		return nil, fmt.Errorf("cannot comment on a closed ticket")
	}

	c := &Comment{
		ID:       uuid.New(),
		TicketID: t.ID,
		AuthorID: authorID,
		Body:     req.Body,
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListComments(ctx context.Context, ticketID string) ([]*Comment, error) {
	return s.repo.ListComments(ctx, ticketID)
}
