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

type CompanyRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewCompanyRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *CompanyRepository {
	return &CompanyRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	companies := []models.Company{}
	var startKey map[string]types.AttributeValue

	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("begins_with(PK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":prefix": &types.AttributeValueMemberS{Value: "COMPANY#"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			r.logger.WithError(err).Error("Failed to scan companies in DynamoDB")
			return nil, fmt.Errorf("failed to scan companies: %w", err)
		}

		var page []models.Company
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal companies: %w", err)
		}
		companies = append(companies, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return companies, nil
}
