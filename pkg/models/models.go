package models

import (
	"time"
)

// DistributionStatus defines the possible states of a commission distribution run.
type DistributionStatus string

const (
	STARTED   DistributionStatus = "STARTED"
	COMPLETED DistributionStatus = "COMPLETED"
	FAILED    DistributionStatus = "FAILED"
)

// Agent represents one participant in the referral tree.
// The parent links form an acyclic forest; an empty ParentAgentID means root.
type Agent struct {
	ID            string    `json:"id" dynamodbav:"id"`
	DisplayCode   string    `json:"display_code" dynamodbav:"display_code"`
	ParentAgentID string    `json:"parent_agent_id,omitempty" dynamodbav:"parent_agent_id,omitempty"`
	WalletBalance int64     `json:"wallet_balance" dynamodbav:"wallet_balance"`
	Version       int64     `json:"version" dynamodbav:"version"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Booking carries the facts of a confirmed tour payment. All monetary
// amounts are int64 minor units.
type Booking struct {
	BookingID       string    `json:"booking_id" dynamodbav:"booking_id"`
	TourID          string    `json:"tour_id" dynamodbav:"tour_id"`
	PayingAgentID   string    `json:"paying_agent_id" dynamodbav:"paying_agent_id"`
	PricePerHead    int64     `json:"price_per_head" dynamodbav:"price_per_head"`
	ActualOccupancy int       `json:"actual_occupancy" dynamodbav:"actual_occupancy"`
	GivenOccupancy  int       `json:"given_occupancy" dynamodbav:"given_occupancy"`
	StartDate       time.Time `json:"start_date" dynamodbav:"start_date"`
	Currency        string    `json:"currency" dynamodbav:"currency"`
}

// TotalAmount is the full payable amount that seeds the distribution.
func (b *Booking) TotalAmount() int64 {
	return b.PricePerHead * int64(b.GivenOccupancy)
}

// SellThroughPct is seats sold over tour capacity, as a percentage.
// Computed once per booking; every hop of the walk uses the same value.
func (b *Booking) SellThroughPct() float64 {
	return float64(b.GivenOccupancy) / float64(b.ActualOccupancy) * 100
}

// CommissionEntry is a single entry in the commission ledger.
// EntryID doubles as the idempotency key: bookingID#agentID#level.
type CommissionEntry struct {
	EntryID         string    `dynamodbav:"entry_id"`
	AuditID         string    `dynamodbav:"audit_id"`
	BookingID       string    `dynamodbav:"booking_id"`
	AgentID         string    `dynamodbav:"agent_id"`
	Level           int       `dynamodbav:"level"`
	RateBasisPoints int64     `dynamodbav:"rate_basis_points"`
	Amount          int64     `dynamodbav:"amount"`
	Description     string    `dynamodbav:"description"`
	Timestamp       time.Time `dynamodbav:"timestamp"`
	GSI1PK          string    `dynamodbav:"gsi1pk"`
}

// DistributionRecord tracks one distribution run per booking, so that
// re-delivered payment confirmations can be detected and replayed safely.
// It must survive restarts for idempotency keys to stay valid across retries.
type DistributionRecord struct {
	BookingID      string             `dynamodbav:"booking_id"`
	PayingAgentID  string             `dynamodbav:"paying_agent_id"`
	TotalAmount    int64              `dynamodbav:"total_amount"`
	SellThroughPct float64            `dynamodbav:"sell_through_pct"`
	Status         DistributionStatus `dynamodbav:"status"`
	HopsApplied    int                `dynamodbav:"hops_applied"`
	Remaining      int64              `dynamodbav:"remaining"`
	LastError      string             `dynamodbav:"last_error,omitempty"`
	CreatedAt      time.Time          `dynamodbav:"created_at"`
	UpdatedAt      time.Time          `dynamodbav:"updated_at"`
}
