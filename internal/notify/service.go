package notify

import (
	"context"
	"fmt"
	"time"

	"disclaude/internal/schedule"
)

// Service routes operational alerts to the configured notifier.
// Errors are logged but never propagated; alerting must not take the bot down.
type Service struct {
	notifier  Notifier
	recipient string
}

// NewService creates a notification service. Either argument may be empty,
// in which case alerts are logged and dropped.
func NewService(notifier Notifier, recipient string) *Service {
	return &Service{
		notifier:  notifier,
		recipient: recipient,
	}
}

// IsAvailable returns true if alerts can actually be delivered
func (s *Service) IsAvailable() bool {
	return s.notifier != nil && s.notifier.IsConfigured() && s.recipient != ""
}

// ReportDeliveryFailure alerts the operator that a reminder fired but could
// not be posted. Matches the scheduler's OnDeliveryError hook signature.
func (s *Service) ReportDeliveryFailure(task schedule.Task, deliveryErr error) {
	alert := Alert{
		Subject: fmt.Sprintf("Reminder delivery failed: %s", task.ID),
		Body: fmt.Sprintf("Reminder %s for user %s in channel %s failed to deliver: %v\nMessage: %s",
			task.ID, task.OwnerID, task.ChannelID, deliveryErr, task.Message),
		OccurredAt: time.Now(),
	}
	s.send(alert)
}

// ReportStartupIssue alerts the operator about a degraded-but-running start,
// such as a missing optional API key.
func (s *Service) ReportStartupIssue(detail string) {
	s.send(Alert{
		Subject:    "DisClaude started in degraded mode",
		Body:       detail,
		OccurredAt: time.Now(),
	})
}

func (s *Service) send(alert Alert) {
	if !s.IsAvailable() {
		fmt.Printf("[NOTIFY] Alerting not configured, dropping alert: %s\n", alert.Subject)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.notifier.Send(ctx, alert, s.recipient); err != nil {
		fmt.Printf("[NOTIFY] %s failed: %v\n", s.notifier.Name(), err)
	}
}
