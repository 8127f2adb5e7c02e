package worker

import (
	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/service"
)

// StartNotifications subscribes the notification log to dispatcher. A non-nil sink additionally
// receives every event, e.g. the Redis stream publisher.
func StartNotifications(dispatcher events.Dispatcher, logger *zap.Logger, sink events.EventHandler) *service.NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), sink)
	notifications.RegisterHandlers()
	return notifications
}
