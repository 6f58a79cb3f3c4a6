package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

const stuckDistributionGSI = "status-created_at-index"

// OpenDistribution creates the distribution record for a booking. If the
// record already exists (the payment confirmation was re-delivered), the
// existing record is returned instead and the bool is false.
func (s *Store) OpenDistribution(ctx context.Context, rec *models.DistributionRecord) (*models.DistributionRecord, bool, error) {
	recAV, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal distribution record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.DistributionsTableName),
		Item:                recAV,
		ConditionExpression: aws.String("attribute_not_exists(booking_id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if !errors.As(err, &condCheckFailed) {
			return nil, false, fmt.Errorf("failed to create distribution record: %w", err)
		}

		existing, getErr := s.GetDistribution(ctx, rec.BookingID)
		if getErr != nil {
			return nil, false, fmt.Errorf("distribution exists but could not be read: %w", getErr)
		}
		return existing, false, nil
	}

	return rec, true, nil
}

// GetDistribution retrieves a distribution record from DynamoDB by booking ID.
func (s *Store) GetDistribution(ctx context.Context, bookingID string) (*models.DistributionRecord, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"booking_id": bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.DistributionsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrDistributionNotFound)
	}

	var rec models.DistributionRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution record: %w", err)
	}

	return &rec, nil
}

// FinishDistribution records the outcome of a distribution run.
func (s *Store) FinishDistribution(ctx context.Context, bookingID string, status models.DistributionStatus, hops int, remaining int64, lastError string) error {
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DistributionsTableName),
		Key: map[string]types.AttributeValue{
			"booking_id": &types.AttributeValueMemberS{Value: bookingID},
		},
		UpdateExpression:    aws.String("SET #status = :status, hops_applied = :hops, remaining = :remaining, last_error = :last_error, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(booking_id)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(status)},
			":hops":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", hops)},
			":remaining":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", remaining)},
			":last_error": &types.AttributeValueMemberS{Value: lastError},
			":now":        nowAV,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return fmt.Errorf("booking %s: %w", bookingID, storage.ErrDistributionNotFound)
		}
		return fmt.Errorf("failed to update distribution record: %w", err)
	}

	return nil
}

// GetStuckDistributions retrieves records left in STARTED for longer than maxAge.
func (s *Store) GetStuckDistributions(ctx context.Context, maxAge time.Duration) ([]models.DistributionRecord, error) {
	cutoff, err := attributevalue.Marshal(time.Now().Add(-maxAge))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff timestamp: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.DistributionsTableName),
		IndexName:              aws.String(stuckDistributionGSI),
		KeyConditionExpression: aws.String("#status = :status AND created_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.STARTED)},
			":cutoff": cutoff,
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck distributions: %w", err)
	}

	var recs []models.DistributionRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution records: %w", err)
	}

	return recs, nil
}
