package queue

import "context"

// NoopMailer drops everything. Used in tests and when no queue is wired.
type NoopMailer struct{}

func (NoopMailer) EnqueueVerificationEmail(ctx context.Context, email, link string) error {
	return nil
}

func (NoopMailer) EnqueueOTPEmail(ctx context.Context, email, code string) error {
	return nil
}
