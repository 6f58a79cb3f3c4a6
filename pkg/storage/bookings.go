package storage

import (
	"context"

	"github.com/tourdesk/agent-commissions/pkg/models"
)

// BookingStore holds booking facts between payment-link creation and the
// gateway's confirmation callback, so the webhook can seed the distribution
// without trusting the gateway to echo booking data back.
type BookingStore interface {
	// PutBooking stores (or refreshes) the booking facts for a payment link.
	PutBooking(ctx context.Context, booking *models.Booking) error

	// GetBooking retrieves a stored booking by its ID.
	// Returns ErrBookingNotFound if none exists.
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}
