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
	"github.com/google/uuid"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

const (
	// ledgerPartition is the static GSI partition key that lets recent
	// entries be queried in timestamp order.
	ledgerPartition = "COMMISSION_ENTRIES"

	ledgerRecentIndex = "gsi1pk-timestamp-index"
	ledgerAgentIndex  = "agent_id-index"

	// maxCreditAttempts bounds the internal retries on an optimistic-lock
	// conflict before the credit surfaces ErrLedgerUnavailable.
	maxCreditAttempts = 3

	conditionalCheckFailedCode = "ConditionalCheckFailed"
)

// Credit atomically applies one commission credit: a conditional Put of the
// ledger entry and an optimistically-locked increment of the agent's wallet
// balance, in a single TransactWriteItems call. Both succeed or both fail.
//
// The entry's EntryID (bookingID#agentID#level) is the idempotency key. When
// the Put condition fails the credit was already applied by an earlier
// delivery; the recorded entry is returned without mutating the balance.
// When only the wallet's version condition fails, another booking credited
// the same agent concurrently; the wallet is re-read and the write retried.
func (s *Store) Credit(ctx context.Context, entry *models.CommissionEntry) (*models.CommissionEntry, bool, error) {
	if entry.Amount < 0 {
		return nil, false, fmt.Errorf("credit amount must not be negative, got %d", entry.Amount)
	}

	for attempt := 0; attempt < maxCreditAttempts; attempt++ {
		agent, err := s.GetAgent(ctx, entry.AgentID)
		if err != nil {
			return nil, false, err
		}

		attemptEntry := *entry
		attemptEntry.AuditID = uuid.New().String()
		attemptEntry.Timestamp = time.Now()
		attemptEntry.GSI1PK = ledgerPartition

		entryAV, err := attributevalue.MarshalMap(&attemptEntry)
		if err != nil {
			return nil, false, fmt.Errorf("failed to marshal ledger entry: %w", err)
		}

		amountAV, err := attributevalue.Marshal(attemptEntry.Amount)
		if err != nil {
			return nil, false, fmt.Errorf("failed to marshal amount: %w", err)
		}

		input := &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{
					// Operation 1: Record the ledger entry, exactly once per key.
					Put: &types.Put{
						TableName:           aws.String(s.LedgerTableName),
						Item:                entryAV,
						ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
					},
				},
				{
					// Operation 2: Increment the agent's wallet balance.
					Update: &types.Update{
						TableName: aws.String(s.AgentsTableName),
						Key: map[string]types.AttributeValue{
							"id": &types.AttributeValueMemberS{Value: entry.AgentID},
						},
						UpdateExpression:    aws.String("SET wallet_balance = wallet_balance + :amount, version = version + :inc"),
						ConditionExpression: aws.String("version = :version"),
						ExpressionAttributeValues: map[string]types.AttributeValue{
							":amount":  amountAV,
							":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", agent.Version)},
							":inc":     &types.AttributeValueMemberN{Value: "1"},
						},
					},
				},
			},
		}

		_, err = s.Client.TransactWriteItems(ctx, input)
		if err == nil {
			return &attemptEntry, true, nil
		}

		var canceled *types.TransactionCanceledException
		if !errors.As(err, &canceled) || len(canceled.CancellationReasons) != 2 {
			return nil, false, fmt.Errorf("failed to execute credit transaction: %w", err)
		}

		// Cancellation reasons line up with the TransactItems order.
		if aws.ToString(canceled.CancellationReasons[0].Code) == conditionalCheckFailedCode {
			existing, getErr := s.getLedgerEntry(ctx, entry.EntryID)
			if getErr != nil {
				return nil, false, fmt.Errorf("credit already applied but failed to read entry %s: %w", entry.EntryID, getErr)
			}
			return existing, false, nil
		}
		if aws.ToString(canceled.CancellationReasons[1].Code) == conditionalCheckFailedCode {
			// Lost the version race to a concurrent credit; re-read and retry.
			continue
		}

		return nil, false, fmt.Errorf("credit transaction canceled: %w", err)
	}

	return nil, false, fmt.Errorf("credit for entry %s exhausted %d attempts: %w", entry.EntryID, maxCreditAttempts, storage.ErrLedgerUnavailable)
}

// getLedgerEntry retrieves a single ledger entry by its idempotency key.
func (s *Store) getLedgerEntry(ctx context.Context, entryID string) (*models.CommissionEntry, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"entry_id": entryID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.LedgerTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("ledger entry %s not found", entryID)
	}

	var entry models.CommissionEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
	}

	return &entry, nil
}

// ListEntries retrieves the most recent ledger entries via the static
// partition GSI, newest first.
func (s *Store) ListEntries(ctx context.Context, limit int32) ([]models.CommissionEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.LedgerTableName),
		IndexName:              aws.String(ledgerRecentIndex),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: ledgerPartition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	var entries []models.CommissionEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}

	return entries, nil
}

// ListEntriesByAgent retrieves all ledger entries credited to one agent.
func (s *Store) ListEntriesByAgent(ctx context.Context, agentID string) ([]models.CommissionEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.LedgerTableName),
		IndexName:              aws.String(ledgerAgentIndex),
		KeyConditionExpression: aws.String("agent_id = :agent_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":agent_id": &types.AttributeValueMemberS{Value: agentID},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for agent %s: %w", agentID, err)
	}

	var entries []models.CommissionEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}

	return entries, nil
}
