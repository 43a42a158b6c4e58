// internal/email/sender.go
package email

import "context"

// EmailSender provides a testable abstraction over SES delivery.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
	SendFrom(ctx context.Context, recipient, subject, body, sender string) error
}

// Recipient is one person an alert goes to.
type Recipient struct {
	UserID string
	Email  string
	Name   string
}
