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

// CreateAgent creates a new agent record in DynamoDB.
func (s *Store) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	agent.Version = 1
	agent.CreatedAt = time.Now()

	agentAV, err := attributevalue.MarshalMap(agent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.AgentsTableName),
		Item:                agentAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"), // Prevent overwriting existing agents.
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("agent %s: %w", agent.ID, storage.ErrAgentExists)
		}
		return nil, fmt.Errorf("failed to create agent in DynamoDB: %w", err)
	}

	return agent, nil
}

// GetAgent retrieves an agent from DynamoDB by its ID.
func (s *Store) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": agentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.AgentsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, storage.ErrAgentNotFound)
	}

	var agent models.Agent
	if err := attributevalue.UnmarshalMap(result.Item, &agent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
	}

	return &agent, nil
}

// ListAgents retrieves all agents from DynamoDB.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.AgentsTableName),
	}

	result, err := s.Client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan agents table: %w", err)
	}

	var agents []models.Agent
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &agents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agents: %w", err)
	}

	return agents, nil
}
