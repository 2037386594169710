package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const (
	TypeSendVerificationEmail = "email:verification"
	TypeSendOTPEmail          = "email:otp"
)

// Mailer hands outbound mail to the dispatcher. Dispatch is fire-and-forget:
// callers log enqueue failures and never surface them to the client.
type Mailer interface {
	EnqueueVerificationEmail(ctx context.Context, email, link string) error
	EnqueueOTPEmail(ctx context.Context, email, code string) error
}

type verificationEmailPayload struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}

type otpEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// AsynqMailer enqueues email tasks on the Redis-backed queue.
type AsynqMailer struct {
	client *asynq.Client
	logger *logrus.Logger
}

func NewAsynqMailer(redisOpt asynq.RedisClientOpt, logger *logrus.Logger) *AsynqMailer {
	return &AsynqMailer{
		client: asynq.NewClient(redisOpt),
		logger: logger,
	}
}

func (m *AsynqMailer) Close() error {
	return m.client.Close()
}

func (m *AsynqMailer) EnqueueVerificationEmail(ctx context.Context, email, link string) error {
	payload, _ := json.Marshal(verificationEmailPayload{Email: email, Link: link})
	task := asynq.NewTask(TypeSendVerificationEmail, payload)
	if _, err := m.client.EnqueueContext(ctx, task); err != nil {
		m.logger.WithError(err).WithField("email", email).Warn("Failed to enqueue verification email")
		return err
	}
	return nil
}

func (m *AsynqMailer) EnqueueOTPEmail(ctx context.Context, email, code string) error {
	payload, _ := json.Marshal(otpEmailPayload{Email: email, Code: code})
	task := asynq.NewTask(TypeSendOTPEmail, payload)
	if _, err := m.client.EnqueueContext(ctx, task); err != nil {
		m.logger.WithError(err).WithField("email", email).Warn("Failed to enqueue OTP email")
		return err
	}
	return nil
}
