package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/models"
)

type JobRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewJobRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *JobRepository {
	return &JobRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *JobRepository) scan(ctx context.Context, filter string, names map[string]string, values map[string]types.AttributeValue) ([]models.Job, error) {
	jobs := []models.Job{}
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          aws.String(filter),
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		}
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}

		result, err := r.client.Scan(ctx, input)
		if err != nil {
			r.logger.WithError(err).Error("Failed to scan jobs in DynamoDB")
			return nil, fmt.Errorf("failed to scan jobs: %w", err)
		}

		var page []models.Job
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal jobs: %w", err)
		}
		jobs = append(jobs, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return jobs, nil
}

func (r *JobRepository) List(ctx context.Context) ([]models.Job, error) {
	return r.scan(ctx,
		"begins_with(PK, :prefix)",
		nil,
		map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: "JOB#"},
		},
	)
}

func (r *JobRepository) ListByCompany(ctx context.Context, companyName string) ([]models.Job, error) {
	return r.scan(ctx,
		"begins_with(PK, :prefix) AND company_name = :company",
		nil,
		map[string]types.AttributeValue{
			":prefix":  &types.AttributeValueMemberS{Value: "JOB#"},
			":company": &types.AttributeValueMemberS{Value: companyName},
		},
	)
}

// GetByIDs fetches jobs in bulk; unknown ids are silently skipped, matching
// the recommendation flow where stale ids may come back from the model.
func (r *JobRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Job, error) {
	if len(ids) == 0 {
		return []models.Job{}, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		job := &models.Job{ID: id}
		keys = append(keys, map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: job.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: job.GetSK()},
		})
	}

	result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to batch get jobs from DynamoDB")
		return nil, fmt.Errorf("failed to batch get jobs: %w", err)
	}

	var jobs []models.Job
	if err := attributevalue.UnmarshalListOfMaps(result.Responses[r.tableName], &jobs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal jobs: %w", err)
	}

	return jobs, nil
}
