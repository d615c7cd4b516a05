package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"hostel-portal/internal/model"
	"hostel-portal/internal/role"
	"hostel-portal/internal/session"
	"hostel-portal/pkg/logger"
)

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotConfirmed      = errors.New("status change was not confirmed")
	ErrForbidden         = errors.New("not allowed for this role")
)

type TaskBackend interface {
	ListTickets(ctx context.Context, token string) ([]model.Ticket, error)
	UpdateTicketStatus(ctx context.Context, token, id string, status model.TaskStatus) error
}

// Confirmer is the "are you sure?" gate in front of every status change.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Preconfirmed answers the gate with a decision the caller already made,
// e.g. a confirmed flag posted by the dashboard dialog.
type Preconfirmed bool

func (p Preconfirmed) Confirm(context.Context, string) bool {
	return bool(p)
}

var taskEditors = map[role.Role]bool{
	role.Staff:  true,
	role.Warden: true,
	role.Admin:  true,
}

type TaskService struct {
	backend TaskBackend
}

func NewTaskService(backend TaskBackend) *TaskService {
	return &TaskService{backend: backend}
}

// List returns tickets newest first, optionally keeping only one status.
func (s *TaskService) List(ctx context.Context, user session.User, status model.TaskStatus) ([]model.Ticket, error) {
	tickets, err := s.backend.ListTickets(ctx, user.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return Filter(SortNewestFirst(tickets), status), nil
}

func (s *TaskService) Summary(ctx context.Context, user session.User) (model.TaskSummary, error) {
	tickets, err := s.backend.ListTickets(ctx, user.Token)
	if err != nil {
		return model.TaskSummary{}, fmt.Errorf("failed to load tasks: %w", err)
	}
	return Summarize(tickets), nil
}

// Advance moves ticket id one step forward to target after confirmation and
// returns the refetched list. Concurrent edits by others are not reconciled;
// the backend's answer wins.
func (s *TaskService) Advance(ctx context.Context, user session.User, id string, target model.TaskStatus, confirm Confirmer) ([]model.Ticket, error) {
	if !taskEditors[user.Role] {
		return nil, ErrForbidden
	}

	tickets, err := s.backend.ListTickets(ctx, user.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	var current *model.Ticket
	for i := range tickets {
		if tickets[i].ID == id {
			current = &tickets[i]
			break
		}
	}
	if current == nil {
		return nil, ErrTicketNotFound
	}

	next, ok := model.NextStatus(current.Status)
	if !ok || next != target {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	prompt := fmt.Sprintf("Mark %q as %s?", current.Title, target)
	if confirm == nil || !confirm.Confirm(ctx, prompt) {
		return nil, ErrNotConfirmed
	}

	if err := s.backend.UpdateTicketStatus(ctx, user.Token, id, target); err != nil {
		logger.WithFields(logger.Fields{"ticket": id, "status": target}).WithError(err).Error("status update failed")
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	logger.WithFields(logger.Fields{"ticket": id, "status": target, "viewer": user.Key()}).Info("task status updated")

	refreshed, err := s.backend.ListTickets(ctx, user.Token)
	if err != nil {
		return nil, fmt.Errorf("status updated but refetch failed: %w", err)
	}
	return SortNewestFirst(refreshed), nil
}

func SortNewestFirst(tickets []model.Ticket) []model.Ticket {
	out := append([]model.Ticket(nil), tickets...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Filter keeps tickets with the given status; an empty status keeps all.
func Filter(tickets []model.Ticket, status model.TaskStatus) []model.Ticket {
	if status == "" {
		return tickets
	}
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

func Summarize(tickets []model.Ticket) model.TaskSummary {
	sum := model.TaskSummary{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case model.StatusPending:
			sum.Pending++
		case model.StatusInProgress:
			sum.InProgress++
		case model.StatusResolved:
			sum.Resolved++
		}
	}
	return sum
}
