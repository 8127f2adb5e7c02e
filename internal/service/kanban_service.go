package service

import (
	"context"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/repository"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// KanbanColumn is one column of the board in display order.
type KanbanColumn struct {
	Status domain.TicketStatus
	Cards  []domain.KanbanCard
}

// KanbanService renders and rearranges the kanban board.
type KanbanService struct {
	tickets repository.TicketRepository
	kanban  repository.KanbanRepository
	tx      TxRunner
}

// NewKanbanService constructs the service.
func NewKanbanService(tickets repository.TicketRepository, kanban repository.KanbanRepository, tx TxRunner) *KanbanService {
	return &KanbanService{tickets: tickets, kanban: kanban, tx: tx}
}

// Board returns every column in lifecycle order. Non-privileged actors only see their own cards.
func (s *KanbanService) Board(ctx context.Context, actor domain.Actor) ([]KanbanColumn, error) {
	columns := make([]KanbanColumn, len(domain.TicketStatuses))
	index := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for i, st := range domain.TicketStatuses {
		columns[i] = KanbanColumn{Status: st, Cards: []domain.KanbanCard{}}
		index[st] = i
	}

	var requester *string
	if !actor.Privileged() {
		if !actor.HasEmployee() {
			return columns, nil
		}
		requester = &actor.EmployeeID
	}
	cards, err := s.kanban.Board(ctx, requester)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, card := range cards {
		i, ok := index[card.Column]
		if !ok {
			continue
		}
		columns[i].Cards = append(columns[i].Cards, card)
	}
	return columns, nil
}

// Move places a card at position within column. The ticket status is not touched.
// Moving shifts every other card in the column, so only privileged actors may rearrange the board.
func (s *KanbanService) Move(ctx context.Context, actor domain.Actor, ticketID string, column domain.TicketStatus, position int) (*domain.KanbanEntry, error) {
	if !column.Valid() {
		return nil, apperrors.NewValidationError("invalid column", map[string]any{"column": column})
	}
	if position < 0 {
		return nil, apperrors.NewValidationError("position must not be negative", nil)
	}
	if !actor.Privileged() {
		return nil, apperrors.NewForbidden("only support staff can rearrange the kanban board")
	}
	if _, err := loadAccessibleTicket(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	var entry *domain.KanbanEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.kanban.Move(ctx, ticketID, column, position); err != nil {
			return err
		}
		var err error
		entry, err = s.kanban.Get(ctx, ticketID)
		return err
	})
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "kanban entry", map[string]any{"ticket_id": ticketID})
	}
	return entry, nil
}
