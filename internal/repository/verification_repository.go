package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// VerificationRepository maps link tokens back to the email they were
// issued for. Items carry a TTL so DynamoDB reaps expired tokens on its
// own; Lookup still checks the expiration explicitly because TTL deletion
// is best-effort.
type VerificationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewVerificationRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *VerificationRepository {
	return &VerificationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func verificationPK(token string) string {
	return fmt.Sprintf("VERIFY#%s", token)
}

func (r *VerificationRepository) Store(ctx context.Context, token, email string, expiresAt time.Time) error {
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: verificationPK(token)},
		"SK":        &types.AttributeValueMemberS{Value: "METADATA"},
		"Email":     &types.AttributeValueMemberS{Value: email},
		"ExpiresAt": &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to store verification token in DynamoDB")
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	return nil
}

// Lookup returns the email and expiration bound to a token. Missing tokens
// yield an empty email and no error.
func (r *VerificationRepository) Lookup(ctx context.Context, token string) (string, time.Time, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: verificationPK(token)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})

	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get verification token: %w", err)
	}

	if result.Item == nil {
		return "", time.Time{}, nil
	}

	var email string
	if attr, ok := result.Item["Email"].(*types.AttributeValueMemberS); ok {
		email = attr.Value
	}

	var expiresAt time.Time
	if attr, ok := result.Item["ExpiresAt"].(*types.AttributeValueMemberS); ok {
		expiresAt, err = time.Parse(time.RFC3339, attr.Value)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to parse token expiration: %w", err)
		}
	}

	return email, expiresAt, nil
}

func (r *VerificationRepository) Delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: verificationPK(token)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})

	if err != nil {
		return fmt.Errorf("failed to delete verification token: %w", err)
	}

	return nil
}
