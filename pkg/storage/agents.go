package storage

import (
	"context"

	"github.com/tourdesk/agent-commissions/pkg/models"
)

// AgentReader defines read access to the agent hierarchy.
type AgentReader interface {
	// GetAgent retrieves an agent by its ID. Returns ErrAgentNotFound if the
	// ID does not resolve.
	GetAgent(ctx context.Context, agentID string) (*models.Agent, error)

	// ListAgents retrieves all agents from the directory.
	ListAgents(ctx context.Context) ([]models.Agent, error)
}

// AgentManager defines the interface for onboarding agents.
type AgentManager interface {
	// CreateAgent creates a new agent record. Returns ErrAgentExists if the
	// ID is already taken.
	CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
}

// AgentStore combines the reader and manager interfaces.
type AgentStore interface {
	AgentReader
	AgentManager
}
