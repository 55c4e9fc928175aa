package notify

import (
	"context"
	"time"
)

// Alert describes an operational problem worth telling a human about,
// such as a reminder that could not be delivered to its channel.
type Alert struct {
	Subject    string
	Body       string
	OccurredAt time.Time
}

// Notifier delivers an alert to a specific recipient
type Notifier interface {
	// Send delivers the alert to the specified recipient
	Send(ctx context.Context, alert Alert, recipient string) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
