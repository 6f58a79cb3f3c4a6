package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/tourdesk/agent-commissions/pkg/commission"
	"github.com/tourdesk/agent-commissions/pkg/models"
	dydbstore "github.com/tourdesk/agent-commissions/pkg/storage/dynamodb"
	"github.com/joho/godotenv"
)

var trigger *commission.Trigger

func init() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	agentsTable := os.Getenv("DYNAMODB_AGENTS_TABLE_NAME")
	ledgerTable := os.Getenv("DYNAMODB_LEDGER_TABLE_NAME")
	distributionsTable := os.Getenv("DYNAMODB_DISTRIBUTIONS_TABLE_NAME")
	bookingsTable := os.Getenv("DYNAMODB_BOOKINGS_TABLE_NAME")

	if agentsTable == "" || ledgerTable == "" || distributionsTable == "" || bookingsTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store := dydbstore.New(dbClient, agentsTable, ledgerTable, distributionsTable, bookingsTable)
	trigger = commission.NewTrigger(commission.NewDistributor(store, store), store)
}

// HandleRequest processes SQS messages and runs the commission distribution
// for each confirmed booking.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var booking models.Booking
		if err := json.Unmarshal([]byte(message.Body), &booking); err != nil {
			log.Printf("ERROR: failed to unmarshal booking from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message, which is appropriate here.
			return err
		}

		log.Printf("Distributing commissions for booking %s", booking.BookingID)

		result, err := trigger.OnPaymentConfirmed(ctx, &booking)
		if err != nil {
			if errors.Is(err, commission.ErrInvalidBooking) || errors.Is(err, commission.ErrCycleDetected) {
				// Retrying cannot fix a malformed booking or a corrupted agent
				// graph; log and drop so the queue does not loop forever.
				log.Printf("ERROR: dropping booking %s: %v", booking.BookingID, err)
				continue
			}
			log.Printf("ERROR: failed to distribute booking %s: %v", booking.BookingID, err)
			// Transient failures (mid-chain lookup, ledger conflict) are safe
			// to retry: already-applied hops replay as no-ops.
			return err
		}

		log.Printf("Distributed booking %s: %d hops, %d remaining", booking.BookingID, len(result.Hops), result.Remaining)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
