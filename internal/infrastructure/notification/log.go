package notification

import (
	"context"

	appnotify "github.com/mayavriksh/backend/internal/application/notification"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier writes messages to the log instead of sending them. It is used
// when SMTP is disabled.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the message
func (LogNotifier) Send(ctx context.Context, msg appnotify.Message) error {
	logger.L(ctx).Info("Email notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)),
	)
	return nil
}

var _ appnotify.Notifier = LogNotifier{}
