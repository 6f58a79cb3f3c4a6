package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

// AppliedHop records one credited step of the upward referral walk.
// Replayed is true when the hop's ledger entry already existed (re-delivered
// event) and the balance was not touched again.
type AppliedHop struct {
	AgentID  string `json:"agent_id"`
	Level    int    `json:"level"`
	Amount   int64  `json:"amount"`
	Replayed bool   `json:"replayed"`
}

// Result is the outcome of one distribution run. Hops are strictly ordered by
// level; Remaining is the house margin left after the last hop.
type Result struct {
	BookingID string       `json:"booking_id"`
	Hops      []AppliedHop `json:"hops"`
	Remaining int64        `json:"remaining"`
	Replayed  bool         `json:"replayed"`
}

// Distributor walks the referral chain from the paying agent upward,
// computing and crediting commission at each hop.
type Distributor struct {
	Agents storage.AgentReader
	Ledger storage.LedgerWriter
}

// NewDistributor creates a Distributor over the given directory and ledger.
func NewDistributor(agents storage.AgentReader, ledger storage.LedgerWriter) *Distributor {
	return &Distributor{Agents: agents, Ledger: ledger}
}

// Distribute runs the iterative upward walk. Hops within one run are strictly
// ordered because the remaining amount is threaded sequentially: each hop takes
// its rate of what is left after the previous one. The walk terminates at a
// root agent, leaving the leftover with the platform.
//
// Mid-chain failures return the partial result alongside the error: each hop's
// credit is an independently committed atomic step, and credits already applied
// stand. Re-running the same booking is safe because every hop's ledger entry
// key is stable.
func (d *Distributor) Distribute(ctx context.Context, bookingID, payingAgentID string, totalAmount int64, sellThroughPct float64) (*Result, error) {
	result := &Result{BookingID: bookingID, Remaining: totalAmount}

	remaining := totalAmount
	level := 1
	currentAgentID := payingAgentID
	visited := make(map[string]bool)

	for currentAgentID != "" {
		if visited[currentAgentID] {
			result.Remaining = remaining
			return result, fmt.Errorf("agent %s seen twice at level %d: %w", currentAgentID, level, ErrCycleDetected)
		}

		agent, err := d.Agents.GetAgent(ctx, currentAgentID)
		if err != nil {
			result.Remaining = remaining
			if errors.Is(err, storage.ErrAgentNotFound) {
				return result, fmt.Errorf("level %d agent %s: %w", level, currentAgentID, err)
			}
			return result, fmt.Errorf("failed to look up level %d agent: %w", level, err)
		}

		rate := Rate(sellThroughPct, level)
		amount := remaining * rate / RateDivisor

		entry := &models.CommissionEntry{
			EntryID:         EntryKey(bookingID, agent.ID, level),
			BookingID:       bookingID,
			AgentID:         agent.ID,
			Level:           level,
			RateBasisPoints: rate,
			Amount:          amount,
			Description:     fmt.Sprintf("Level %d commission for booking %s", level, bookingID),
		}

		applied, creditedNow, err := d.Ledger.Credit(ctx, entry)
		if err != nil {
			result.Remaining = remaining
			return result, fmt.Errorf("failed to credit level %d agent %s: %w", level, agent.ID, err)
		}

		result.Hops = append(result.Hops, AppliedHop{
			AgentID:  agent.ID,
			Level:    level,
			Amount:   applied.Amount,
			Replayed: !creditedNow,
		})

		// A replayed entry may carry the amount recorded by the earlier run;
		// thread that, not the freshly computed one, so the walk reproduces
		// the original sequence exactly.
		remaining -= applied.Amount
		visited[agent.ID] = true
		currentAgentID = agent.ParentAgentID
		level++
	}

	result.Remaining = remaining

	var total int64
	for _, hop := range result.Hops {
		total += hop.Amount
	}
	if total+result.Remaining != totalAmount {
		return result, fmt.Errorf("hops %d + remaining %d != total %d: %w", total, result.Remaining, totalAmount, ErrConservation)
	}

	return result, nil
}

// EntryKey builds the stable idempotency key for one hop's ledger entry.
func EntryKey(bookingID, agentID string, level int) string {
	return fmt.Sprintf("%s#%s#%d", bookingID, agentID, level)
}
