package storage

import (
	"context"

	"github.com/tourdesk/agent-commissions/pkg/models"
)

// LedgerWriter defines the privileged interface for applying commission credits.
// Nothing else in the system may mutate an agent's wallet balance.
type LedgerWriter interface {
	// Credit atomically increments the agent's wallet balance and appends the
	// ledger entry; both succeed or both fail together. The entry's EntryID is
	// the idempotency key: if an entry with the same key was already applied,
	// the previously recorded entry is returned and applied is false, without
	// touching the balance again. A zero amount is a legal no-op credit and is
	// still recorded. Transient optimistic-lock conflicts are retried a bounded
	// number of times before surfacing ErrLedgerUnavailable.
	Credit(ctx context.Context, entry *models.CommissionEntry) (applied *models.CommissionEntry, creditedNow bool, err error)
}

// LedgerReader defines the interface for reading commission ledger data.
type LedgerReader interface {
	// ListEntries retrieves the most recent ledger entries.
	ListEntries(ctx context.Context, limit int32) ([]models.CommissionEntry, error)

	// ListEntriesByAgent retrieves all ledger entries credited to one agent.
	ListEntriesByAgent(ctx context.Context, agentID string) ([]models.CommissionEntry, error)
}

// LedgerStore combines the writer and reader interfaces.
type LedgerStore interface {
	LedgerWriter
	LedgerReader
}
