// Package service coordinates the helpdesk workflows on top of the repositories. Every entry point
// takes the acting identity explicitly; nothing here reads request state.
package service

import (
	"context"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
	"github.com/ticketera/helpdesk-service/internal/repository"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// TxRunner runs fn inside one database transaction. persistence.TxManager implements it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup from user input and keeps the literal characters.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// loadAccessibleTicket fetches a ticket and applies the access predicate.
func loadAccessibleTicket(ctx context.Context, tickets repository.TicketRepository, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !lifecycle.CanAccess(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func requireEmployee(actor domain.Actor) error {
	if !actor.HasEmployee() {
		return apperrors.NewForbidden("employee profile required")
	}
	return nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func employeeRef(actor domain.Actor) *string {
	if !actor.HasEmployee() {
		return nil
	}
	id := actor.EmployeeID
	return &id
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
