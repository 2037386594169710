package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Worker consumes email tasks. Delivery is log-only until an SMTP relay is
// configured; the handlers render exactly what the transport would send.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	sender string
	logger *logrus.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, sender string, logger *logrus.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, sender: sender, logger: logger}
	mux.HandleFunc(TypeSendVerificationEmail, w.handleVerificationEmail)
	mux.HandleFunc(TypeSendOTPEmail, w.handleOTPEmail)
	return w
}

func (w *Worker) handleVerificationEmail(ctx context.Context, t *asynq.Task) error {
	var p verificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.logger.WithError(err).Error("Verification email payload invalid")
		return err
	}
	w.logger.WithFields(logrus.Fields{
		"from":    w.sender,
		"to":      p.Email,
		"subject": "Email Verification Link",
		"link":    p.Link,
	}).Info("Verification email (log only; configure SMTP for real delivery)")
	return nil
}

func (w *Worker) handleOTPEmail(ctx context.Context, t *asynq.Task) error {
	var p otpEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.logger.WithError(err).Error("OTP email payload invalid")
		return err
	}
	w.logger.WithFields(logrus.Fields{
		"from":    w.sender,
		"to":      p.Email,
		"subject": "Reset Password",
	}).Info("OTP email (log only; configure SMTP for real delivery)")
	return nil
}

// Run blocks until Shutdown is called.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
