package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

// PutBooking stores the booking facts for a payment link. Re-creating a link
// for the same booking simply refreshes the item.
func (s *Store) PutBooking(ctx context.Context, booking *models.Booking) error {
	bookingAV, err := attributevalue.MarshalMap(booking)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.BookingsTableName),
		Item:      bookingAV,
	})
	if err != nil {
		return fmt.Errorf("failed to store booking in DynamoDB: %w", err)
	}

	return nil
}

// GetBooking retrieves a stored booking from DynamoDB by its ID.
func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"booking_id": bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.BookingsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get booking from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrBookingNotFound)
	}

	var booking models.Booking
	if err := attributevalue.UnmarshalMap(result.Item, &booking); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}

	return &booking, nil
}
