// Package memory provides an in-memory implementation of the storage
// interfaces with the same semantics as the DynamoDB store: idempotent
// ledger entries keyed by entry ID and serialized wallet credits. It backs
// local development and the engine's concurrency tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

// Store implements the Storage interface with mutex-guarded maps.
type Store struct {
	mu            sync.Mutex
	agents        map[string]*models.Agent
	entries       map[string]*models.CommissionEntry
	entryOrder    []string
	distributions map[string]*models.DistributionRecord
	bookings      map[string]*models.Booking
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		agents:        make(map[string]*models.Agent),
		entries:       make(map[string]*models.CommissionEntry),
		distributions: make(map[string]*models.DistributionRecord),
		bookings:      make(map[string]*models.Booking),
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// CreateAgent creates a new agent record.
func (s *Store) CreateAgent(_ context.Context, agent *models.Agent) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[agent.ID]; ok {
		return nil, fmt.Errorf("agent %s: %w", agent.ID, storage.ErrAgentExists)
	}

	agent.Version = 1
	agent.CreatedAt = time.Now()
	stored := *agent
	s.agents[agent.ID] = &stored

	return agent, nil
}

// GetAgent retrieves an agent by its ID.
func (s *Store) GetAgent(_ context.Context, agentID string) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", agentID, storage.ErrAgentNotFound)
	}

	copied := *agent
	return &copied, nil
}

// ListAgents retrieves all agents, ordered by ID for determinism.
func (s *Store) ListAgents(_ context.Context) ([]models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents := make([]models.Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		agents = append(agents, *agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })

	return agents, nil
}

// Credit applies one commission credit under the store lock: the ledger
// entry append and the balance increment happen together or not at all.
// A replayed entry ID returns the recorded entry without touching the balance.
func (s *Store) Credit(_ context.Context, entry *models.CommissionEntry) (*models.CommissionEntry, bool, error) {
	if entry.Amount < 0 {
		return nil, false, fmt.Errorf("credit amount must not be negative, got %d", entry.Amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[entry.EntryID]; ok {
		copied := *existing
		return &copied, false, nil
	}

	agent, ok := s.agents[entry.AgentID]
	if !ok {
		return nil, false, fmt.Errorf("agent %s: %w", entry.AgentID, storage.ErrAgentNotFound)
	}

	stored := *entry
	stored.AuditID = uuid.New().String()
	stored.Timestamp = time.Now()

	agent.WalletBalance += stored.Amount
	agent.Version++
	s.entries[stored.EntryID] = &stored
	s.entryOrder = append(s.entryOrder, stored.EntryID)

	copied := stored
	return &copied, true, nil
}

// ListEntries retrieves the most recent ledger entries, newest first.
func (s *Store) ListEntries(_ context.Context, limit int32) ([]models.CommissionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.CommissionEntry
	for i := len(s.entryOrder) - 1; i >= 0 && int32(len(entries)) < limit; i-- {
		entries = append(entries, *s.entries[s.entryOrder[i]])
	}

	return entries, nil
}

// ListEntriesByAgent retrieves all ledger entries credited to one agent.
func (s *Store) ListEntriesByAgent(_ context.Context, agentID string) ([]models.CommissionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.CommissionEntry
	for _, id := range s.entryOrder {
		if s.entries[id].AgentID == agentID {
			entries = append(entries, *s.entries[id])
		}
	}

	return entries, nil
}

// OpenDistribution creates the record for a booking or returns the existing one.
func (s *Store) OpenDistribution(_ context.Context, rec *models.DistributionRecord) (*models.DistributionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.distributions[rec.BookingID]; ok {
		copied := *existing
		return &copied, false, nil
	}

	stored := *rec
	s.distributions[rec.BookingID] = &stored

	return rec, true, nil
}

// GetDistribution retrieves a distribution record by booking ID.
func (s *Store) GetDistribution(_ context.Context, bookingID string) (*models.DistributionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.distributions[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrDistributionNotFound)
	}

	copied := *rec
	return &copied, nil
}

// FinishDistribution records the outcome of a distribution run.
func (s *Store) FinishDistribution(_ context.Context, bookingID string, status models.DistributionStatus, hops int, remaining int64, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.distributions[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID, storage.ErrDistributionNotFound)
	}

	rec.Status = status
	rec.HopsApplied = hops
	rec.Remaining = remaining
	rec.LastError = lastError
	rec.UpdatedAt = time.Now()

	return nil
}

// PutBooking stores the booking facts for a payment link.
func (s *Store) PutBooking(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *booking
	s.bookings[booking.BookingID] = &stored

	return nil
}

// GetBooking retrieves a stored booking by its ID.
func (s *Store) GetBooking(_ context.Context, bookingID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrBookingNotFound)
	}

	copied := *booking
	return &copied, nil
}

// GetStuckDistributions retrieves records left in STARTED for longer than maxAge.
func (s *Store) GetStuckDistributions(_ context.Context, maxAge time.Duration) ([]models.DistributionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var recs []models.DistributionRecord
	for _, rec := range s.distributions {
		if rec.Status == models.STARTED && rec.CreatedAt.Before(cutoff) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })

	return recs, nil
}
