package tracking

import (
	"context"
	"go.uber.org/zap"
	"parcel-status-relay/workers/tracking/models"
)

// Notifier delivers a message to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, channel, text string) error
}

// Journal records delivered notifications.
type Journal interface {
	SaveNotification(ctx context.Context, notification *models.Notification) error
}

// LogNotifier writes notifications to the log. It stands in for a chat
// integration when none is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, channel, text string) error {
	n.logger.Info("Status notification", zap.String("channel", channel), zap.String("text", text))
	return nil
}
