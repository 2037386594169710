package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/models"
)

type ProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewProfileRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Get returns nil, nil when the user has no profile yet.
func (r *ProfileRepository) Get(ctx context.Context, email string) (*models.Profile, error) {
	profile := &models.Profile{Email: email}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: profile.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: profile.GetSK()},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get profile from DynamoDB")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var dbProfile models.Profile
	if err := attributevalue.UnmarshalMap(result.Item, &dbProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &dbProfile, nil
}

// Put writes the whole profile document. Both the dashboard bootstrap and
// profile updates go through here; last write wins.
func (r *ProfileRepository) Put(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal profile for DynamoDB")
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: profile.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: profile.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to put profile in DynamoDB")
		return fmt.Errorf("failed to put profile: %w", err)
	}

	return nil
}
