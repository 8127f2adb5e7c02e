package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/observability"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/sla"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

const defaultSweepBatch = 100

// SLAService flags overdue tickets. Each ticket is flagged at most once.
type SLAService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	batchSize  int
	now        func() time.Time
}

// SLADependencies bundles collaborators for the sweeper.
type SLADependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	BatchSize  int
	Now        func() time.Time
}

// NewSLAService constructs the sweeper service.
func NewSLAService(deps SLADependencies) *SLAService {
	s := &SLAService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		batchSize:  deps.BatchSize,
		now:        deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultSweepBatch
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Notified int
	Overdue  int
}

// Sweep flags one batch of overdue tickets and emits a breach event for each. Tickets already
// flagged, or flagged concurrently by another sweeper, are skipped.
func (s *SLAService) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now().UTC()
	candidates, err := s.tickets.ListOverdue(ctx, now, s.batchSize)
	if err != nil {
		return SweepResult{}, apperrors.MapError(err)
	}

	var result SweepResult
	for i := range candidates {
		ticket := &candidates[i]
		if !sla.NeedsBreachNotice(ticket, now) {
			continue
		}
		marked, err := s.tickets.MarkSLABreachNotified(ctx, ticket.ID, now)
		if err != nil {
			return result, apperrors.MapError(err)
		}
		if !marked {
			continue
		}
		result.Notified++
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketSLABreached, ticket.ID, events.SystemActor,
			events.TicketSLABreachedPayload{DueAt: *ticket.DueAt, Status: ticket.Status, Priority: ticket.Priority}))
	}

	overdue, err := s.tickets.CountOverdue(ctx, now)
	if err != nil {
		return result, apperrors.MapError(err)
	}
	result.Overdue = overdue
	s.metrics.SetOverdue(overdue)
	if result.Notified > 0 {
		s.logger.Info("sla sweep flagged tickets",
			zap.Int("notified", result.Notified),
			zap.Int("overdue", result.Overdue))
	}
	return result, nil
}
