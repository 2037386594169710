package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/config"
	"github.com/workshala/server/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrOTPNotFound means no live code exists for the email.
	ErrOTPNotFound = errors.New("otp not found")
	// ErrOTPExpired means a record existed but had outlived its window.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPMismatch means a live record exists but the submitted code differs.
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrOTPTooManyAttempts means the record burned through its guess budget
	// and has been invalidated.
	ErrOTPTooManyAttempts = errors.New("otp maximum attempts exceeded")
)

// OTPStore persists at most one live code per email.
type OTPStore interface {
	Save(ctx context.Context, record models.OTPRecord) error
	Get(ctx context.Context, email string) (*models.OTPRecord, error)
	Delete(ctx context.Context, email string) error
}

type OTPService struct {
	store  OTPStore
	cfg    *config.OTPConfig
	logger *logrus.Logger
}

func NewOTPService(store OTPStore, cfg *config.OTPConfig, logger *logrus.Logger) *OTPService {
	return &OTPService{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Issue generates a 4-digit code for the email and stores its hash,
// replacing any code issued earlier. The plain code is returned once for
// dispatch and never persisted.
func (s *OTPService) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash OTP: %w", err)
	}

	now := time.Now()
	record := models.OTPRecord{
		Email:     email,
		CodeHash:  string(hashed),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}

	if err := s.store.Save(ctx, record); err != nil {
		return "", err
	}

	return code, nil
}

// Validate checks the submitted code against the live record and consumes
// the record on success, so a code is accepted at most once.
func (s *OTPService) Validate(ctx context.Context, email, code string) error {
	record, err := s.store.Get(ctx, email)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrOTPNotFound
	}

	if time.Now().After(record.ExpiresAt) {
		if err := s.store.Delete(ctx, email); err != nil {
			s.logger.WithError(err).Warn("Failed to delete expired OTP")
		}
		return ErrOTPExpired
	}

	if record.Attempts >= s.cfg.MaxAttempts {
		if err := s.store.Delete(ctx, email); err != nil {
			s.logger.WithError(err).Warn("Failed to delete exhausted OTP")
		}
		return ErrOTPTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		record.Attempts++
		if err := s.store.Save(ctx, *record); err != nil {
			s.logger.WithError(err).Warn("Failed to record OTP attempt")
		}
		return ErrOTPMismatch
	}

	if err := s.store.Delete(ctx, email); err != nil {
		s.logger.WithError(err).Warn("Failed to delete validated OTP")
	}
	return nil
}

// generateCode draws uniformly from [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
