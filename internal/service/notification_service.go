package service

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ticketera/helpdesk-service/internal/events"
)

// NotificationService logs domain events and forwards them to an outbound sink.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       events.EventHandler
}

// NewNotificationService creates the service. sink may be nil, in which case events are only
// logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink events.EventHandler) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.logEvent("TicketCreated", zap.InfoLevel))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logEvent("TicketStatusChanged", zap.InfoLevel))
	n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.logEvent("TicketPriorityChanged", zap.InfoLevel))
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.logEvent("TicketAssigned", zap.InfoLevel))
	n.dispatcher.Subscribe(events.EventTicketMeetingScheduled, n.logEvent("TicketMeetingScheduled", zap.InfoLevel))
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.logEvent("TicketCommentAdded", zap.DebugLevel))
	n.dispatcher.Subscribe(events.EventTicketEvaluated, n.logEvent("TicketEvaluated", zap.InfoLevel))
	n.dispatcher.Subscribe(events.EventTicketSLABreached, n.logEvent("TicketSLABreached", zap.WarnLevel))
	if n.sink != nil {
		n.dispatcher.SubscribeAll(n.forward)
	}
}

func (n *NotificationService) logEvent(name string, level zapcore.Level) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		if ce := n.logger.Check(level, name); ce != nil {
			ce.Write(
				zap.String("event_id", event.ID),
				zap.String("ticket_id", event.TicketID),
				zap.Any("payload", event.Payload))
		}
		return nil
	}
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if err := n.sink(ctx, event); err != nil {
		n.logger.Error("forward event failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
