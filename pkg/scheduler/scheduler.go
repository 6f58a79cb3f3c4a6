package scheduler

import (
	"context"

	"github.com/tourdesk/agent-commissions/pkg/models"
)

// Scheduler defines the interface for a component that enqueues a confirmed
// booking for asynchronous commission distribution.
type Scheduler interface {
	// EnqueueBooking hands a confirmed booking to the distribution worker.
	// Delivery is at-least-once; the idempotent ledger absorbs duplicates.
	EnqueueBooking(ctx context.Context, booking *models.Booking) error
}
