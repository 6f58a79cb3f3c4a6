package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

// DynamoDBAPI defines the subset of the DynamoDB client used by the store.
// Having an interface here lets tests swap in a mock client.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client                 DynamoDBAPI
	AgentsTableName        string
	LedgerTableName        string
	DistributionsTableName string
	BookingsTableName      string
}

// New creates a new Store.
func New(client DynamoDBAPI, agentsTable, ledgerTable, distributionsTable, bookingsTable string) *Store {
	return &Store{
		Client:                 client,
		AgentsTableName:        agentsTable,
		LedgerTableName:        ledgerTable,
		DistributionsTableName: distributionsTable,
		BookingsTableName:      bookingsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)
