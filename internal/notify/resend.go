package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier sends alert emails via the Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
}

// NewResendNotifier creates a new Resend email notifier.
// Returns nil when no API key is configured.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
	}
}

// Name returns the notifier name
func (r *ResendNotifier) Name() string {
	return "resend_email"
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r.client != nil && r.fromAddress != ""
}

// Send emails the alert to the specified recipient
func (r *ResendNotifier) Send(ctx context.Context, alert Alert, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("no recipient specified")
	}

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{recipient},
		Subject: alert.Subject,
		Html:    r.formatEmailHTML(alert),
	}

	_, err := r.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	fmt.Printf("[NOTIFY] Alert email sent to %s: %s\n", recipient, alert.Subject)
	return nil
}

func (r *ResendNotifier) formatEmailHTML(alert Alert) string {
	return fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px;">
			<h2>%s</h2>
			<p>%s</p>
			<p style="color: #666; font-size: 12px;">Occurred at %s</p>
		</div>`,
		html.EscapeString(alert.Subject),
		html.EscapeString(alert.Body),
		alert.OccurredAt.Format("Mon, Jan 2 2006 at 3:04 PM MST"))
}
