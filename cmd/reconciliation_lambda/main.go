package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/tourdesk/agent-commissions/pkg/scheduler"
	"github.com/tourdesk/agent-commissions/pkg/storage"
	dydbstore "github.com/tourdesk/agent-commissions/pkg/storage/dynamodb"
)

var store storage.Storage
var queue scheduler.Scheduler

const stuckDistributionThreshold = 20 * time.Minute

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	sqsClient := sqs.NewFromConfig(cfg)

	sqsQueueURL := os.Getenv("SQS_QUEUE_URL")
	if sqsQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}
	queue = scheduler.NewSQSScheduler(sqsClient, sqsQueueURL)

	agentsTable := os.Getenv("DYNAMODB_AGENTS_TABLE_NAME")
	ledgerTable := os.Getenv("DYNAMODB_LEDGER_TABLE_NAME")
	distributionsTable := os.Getenv("DYNAMODB_DISTRIBUTIONS_TABLE_NAME")
	bookingsTable := os.Getenv("DYNAMODB_BOOKINGS_TABLE_NAME")

	store = dydbstore.New(dbClient, agentsTable, ledgerTable, distributionsTable, bookingsTable)
}

// HandleRequest is triggered by an EventBridge Schedule. Distributions left
// in STARTED longer than the threshold (a crash or mid-chain failure) are
// re-enqueued; the idempotent ledger turns already-paid hops into no-ops.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting reconciliation of stuck distributions...")

	stuck, err := store.GetStuckDistributions(ctx, stuckDistributionThreshold)
	if err != nil {
		log.Printf("ERROR: failed to get stuck distributions: %v", err)
		return err
	}

	if len(stuck) == 0 {
		log.Println("No stuck distributions found.")
		return nil
	}

	log.Printf("Found %d stuck distributions. Re-enqueuing them...", len(stuck))

	for _, rec := range stuck {
		booking, err := store.GetBooking(ctx, rec.BookingID)
		if err != nil {
			log.Printf("ERROR: failed to load booking %s: %v", rec.BookingID, err)
			// Continue to the next record, don't let one failure stop the whole batch.
			continue
		}
		if err := queue.EnqueueBooking(ctx, booking); err != nil {
			log.Printf("ERROR: failed to re-enqueue booking %s: %v", rec.BookingID, err)
			continue
		}
		log.Printf("Successfully re-enqueued booking %s", rec.BookingID)
	}

	log.Println("Reconciliation finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
