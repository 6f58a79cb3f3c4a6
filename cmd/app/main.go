package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/tourdesk/agent-commissions/pkg/commission"
	"github.com/tourdesk/agent-commissions/pkg/handlers"
	ledgerhandlers "github.com/tourdesk/agent-commissions/pkg/handlers/ledger"
	"github.com/tourdesk/agent-commissions/pkg/middleware"
	"github.com/tourdesk/agent-commissions/pkg/paylink"
	"github.com/tourdesk/agent-commissions/pkg/scheduler"
	dydbstore "github.com/tourdesk/agent-commissions/pkg/storage/dynamodb"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// AWS Session
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

	// SQS client and distribution queue
	sqsClient := sqs.NewFromConfig(cfg)
	sqsQueueURL := os.Getenv("SQS_QUEUE_URL")
	if sqsQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}
	queue := scheduler.NewSQSScheduler(sqsClient, sqsQueueURL)

	// Storage, engine, gateway client
	store := dydbstore.New(dbClient, agentsTable, ledgerTable, distributionsTable, bookingsTable)
	trigger := commission.NewTrigger(commission.NewDistributor(store, store), store)
	gateway := paylink.NewFromEnv()

	// Router and handlers
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))

	handlers.NewApiHandler(store, trigger, queue, gateway).RegisterRoutes(router)
	ledgerhandlers.NewLedgerHandler(store).RegisterRoutes(router)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
