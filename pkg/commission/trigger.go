package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

// Trigger is the external entry point of the engine, invoked once a payment
// is confirmed. Delivery of the confirmation may be at-least-once.
type Trigger struct {
	Distributor   *Distributor
	Distributions storage.DistributionStore
}

// NewTrigger creates a Trigger.
func NewTrigger(distributor *Distributor, distributions storage.DistributionStore) *Trigger {
	return &Trigger{Distributor: distributor, Distributions: distributions}
}

// ValidateBooking rejects malformed bookings before any mutation happens.
func ValidateBooking(b *models.Booking) error {
	switch {
	case b.BookingID == "":
		return fmt.Errorf("booking ID is required: %w", ErrInvalidBooking)
	case b.PayingAgentID == "":
		return fmt.Errorf("paying agent ID is required: %w", ErrInvalidBooking)
	case b.ActualOccupancy <= 0:
		return fmt.Errorf("actual occupancy must be positive, got %d: %w", b.ActualOccupancy, ErrInvalidBooking)
	case b.GivenOccupancy < 0 || b.GivenOccupancy > b.ActualOccupancy:
		return fmt.Errorf("given occupancy %d out of range [0, %d]: %w", b.GivenOccupancy, b.ActualOccupancy, ErrInvalidBooking)
	case b.PricePerHead < 0:
		return fmt.Errorf("price per head must not be negative, got %d: %w", b.PricePerHead, ErrInvalidBooking)
	}
	return nil
}

// OnPaymentConfirmed validates the booking, opens (or re-opens) its
// distribution record, and runs the upward commission walk.
//
// A booking whose record is already COMPLETED short-circuits: the stored
// outcome is returned and no credit is attempted again. A record still in
// STARTED means an earlier run crashed or failed mid-chain; the walk re-runs
// and the idempotent ledger turns already-paid hops into no-ops.
func (t *Trigger) OnPaymentConfirmed(ctx context.Context, booking *models.Booking) (*Result, error) {
	if err := ValidateBooking(booking); err != nil {
		return nil, err
	}

	totalAmount := booking.TotalAmount()
	sellThroughPct := booking.SellThroughPct()

	rec, created, err := t.Distributions.OpenDistribution(ctx, &models.DistributionRecord{
		BookingID:      booking.BookingID,
		PayingAgentID:  booking.PayingAgentID,
		TotalAmount:    totalAmount,
		SellThroughPct: sellThroughPct,
		Status:         models.STARTED,
		Remaining:      totalAmount,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open distribution for booking %s: %w", booking.BookingID, err)
	}

	if !created && rec.Status == models.COMPLETED {
		return &Result{
			BookingID: booking.BookingID,
			Remaining: rec.Remaining,
			Replayed:  true,
		}, nil
	}

	result, err := t.Distributor.Distribute(ctx, booking.BookingID, booking.PayingAgentID, totalAmount, sellThroughPct)
	if err != nil {
		status := models.STARTED
		if errors.Is(err, ErrCycleDetected) {
			// Fatal data-integrity fault; retrying cannot help until the
			// agent graph is repaired out of band.
			status = models.FAILED
		}
		if finishErr := t.Distributions.FinishDistribution(ctx, booking.BookingID, status, len(result.Hops), result.Remaining, err.Error()); finishErr != nil {
			return result, errors.Join(err, fmt.Errorf("failed to record distribution outcome: %w", finishErr))
		}
		return result, err
	}

	if err := t.Distributions.FinishDistribution(ctx, booking.BookingID, models.COMPLETED, len(result.Hops), result.Remaining, ""); err != nil {
		// The credits are committed; a missed COMPLETED mark only costs one
		// extra replay on the next delivery.
		return result, fmt.Errorf("distribution applied but failed to mark complete: %w", err)
	}

	return result, nil
}
