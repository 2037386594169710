package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/models"
)

// OTPRepository keeps the live reset code per email in Redis. SET replaces
// any prior value, so reissuing a code never leaves a second record, and
// the key TTL bounds how long an unvalidated code survives.
type OTPRepository struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewOTPRepository(client *redis.Client, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{
		client: client,
		logger: logger,
	}
}

func otpKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

func (r *OTPRepository) Save(ctx context.Context, record models.OTPRecord) error {
	dataJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP record: %w", err)
	}

	ttl := time.Until(record.ExpiresAt)
	if err := r.client.Set(ctx, otpKey(record.Email), dataJSON, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store OTP in Redis")
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	return nil
}

// Get returns nil, nil when no live record exists for the email.
func (r *OTPRepository) Get(ctx context.Context, email string) (*models.OTPRecord, error) {
	dataJSON, err := r.client.Get(ctx, otpKey(email)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get OTP from Redis")
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	var record models.OTPRecord
	if err := json.Unmarshal([]byte(dataJSON), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP record: %w", err)
	}

	return &record, nil
}

func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}
