// Package notification defines the outbound notification collaborator.
// Delivery mechanics live outside this service; the default sender only
// records the intent.
package notification

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/system/log"
)

// Template names used by the privacy workflows.
const (
	TemplateDeletionConfirmation = "account-deletion-confirmation"
	TemplateDeletionCancelled    = "account-deletion-cancelled"
	TemplateExportReady          = "data-export-ready"
	TemplateReconsentReminder    = "consent-renewal-reminder"
)

// Sender delivers a templated notification to a user.
type Sender interface {
	Send(ctx context.Context, userID, template string, params map[string]string) error
}

// logSender is the default Sender used when no delivery integration is
// configured. It logs the notification and reports success.
type logSender struct{}

// NewLogSender creates a Sender that only logs.
func NewLogSender() Sender {
	return &logSender{}
}

func (s *logSender) Send(ctx context.Context, userID, template string, params map[string]string) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "NotificationSender"))
	logger.Info("Notification queued",
		log.String("user_id", userID),
		log.String("template", template),
		log.Int("param_count", len(params)),
	)
	return nil
}

// noopSender drops notifications entirely. Used when notifications are
// disabled in configuration.
type noopSender struct{}

// NewNoopSender creates a Sender that drops everything.
func NewNoopSender() Sender {
	return &noopSender{}
}

func (s *noopSender) Send(ctx context.Context, userID, template string, params map[string]string) error {
	return nil
}
