// Package api holds the wire types of the HTTP surface, kept separate from
// the storage models so the two can evolve independently.
package api

import "time"

// NewAgent is the request body for onboarding an agent.
type NewAgent struct {
	ParentAgentID string `json:"parent_agent_id,omitempty"`
}

// Agent is the wire representation of a referral-tree participant.
type Agent struct {
	ID            string    `json:"id"`
	DisplayCode   string    `json:"display_code"`
	ParentAgentID string    `json:"parent_agent_id,omitempty"`
	WalletBalance int64     `json:"wallet_balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// ConfirmedBooking is the payment-confirmation payload accepted by the
// booking trigger. Monetary amounts are int64 minor units.
type ConfirmedBooking struct {
	BookingID       string    `json:"booking_id"`
	TourID          string    `json:"tour_id"`
	PayingAgentID   string    `json:"paying_agent_id"`
	PricePerHead    int64     `json:"price_per_head"`
	ActualOccupancy int       `json:"actual_occupancy"`
	GivenOccupancy  int       `json:"given_occupancy"`
	StartDate       time.Time `json:"start_date,omitempty"`
	Currency        string    `json:"currency,omitempty"`
}

// AppliedHop is one credited step of a distribution.
type AppliedHop struct {
	AgentID  string `json:"agent_id"`
	Level    int    `json:"level"`
	Amount   int64  `json:"amount"`
	Replayed bool   `json:"replayed,omitempty"`
}

// DistributionResult is the outcome of a distribution run.
type DistributionResult struct {
	BookingID string       `json:"booking_id"`
	Hops      []AppliedHop `json:"hops"`
	Remaining int64        `json:"remaining"`
	Replayed  bool         `json:"replayed,omitempty"`
}

// CommissionEntry is the wire representation of one ledger entry.
type CommissionEntry struct {
	EntryID         string    `json:"entry_id"`
	AuditID         string    `json:"audit_id"`
	BookingID       string    `json:"booking_id"`
	AgentID         string    `json:"agent_id"`
	Level           int       `json:"level"`
	RateBasisPoints int64     `json:"rate_basis_points"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	Timestamp       time.Time `json:"timestamp"`
}

// Distribution is the wire representation of a distribution record.
type Distribution struct {
	BookingID      string    `json:"booking_id"`
	PayingAgentID  string    `json:"paying_agent_id"`
	TotalAmount    int64     `json:"total_amount"`
	SellThroughPct float64   `json:"sell_through_pct"`
	Status         string    `json:"status"`
	HopsApplied    int       `json:"hops_applied"`
	Remaining      int64     `json:"remaining"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPaymentLink is the request body for creating a collect link at the
// external payment gateway. The full booking is supplied up front so the
// confirmation callback can seed the distribution without the gateway having
// to echo booking data back.
type NewPaymentLink struct {
	Booking ConfirmedBooking `json:"booking"`
}

// PaymentLink is the gateway's collect link for a booking.
type PaymentLink struct {
	BookingID  string `json:"booking_id"`
	CollectURL string `json:"collect_url"`
}
