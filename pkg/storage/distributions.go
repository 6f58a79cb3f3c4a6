package storage

import (
	"context"
	"time"

	"github.com/tourdesk/agent-commissions/pkg/models"
)

// DistributionStore tracks one distribution record per booking.
type DistributionStore interface {
	// OpenDistribution creates the record for a booking, or returns the existing
	// one when the triggering event was re-delivered. The bool reports whether
	// the record was created by this call.
	OpenDistribution(ctx context.Context, rec *models.DistributionRecord) (*models.DistributionRecord, bool, error)

	// GetDistribution retrieves a distribution record by booking ID.
	// Returns ErrDistributionNotFound if none exists.
	GetDistribution(ctx context.Context, bookingID string) (*models.DistributionRecord, error)

	// FinishDistribution records the outcome of a run: terminal status, hops
	// applied, the remaining (house-margin) amount, and the last error if any.
	FinishDistribution(ctx context.Context, bookingID string, status models.DistributionStatus, hops int, remaining int64, lastError string) error

	// GetStuckDistributions retrieves records left in STARTED for longer than
	// maxAge, so the reconciliation job can re-enqueue them.
	GetStuckDistributions(ctx context.Context, maxAge time.Duration) ([]models.DistributionRecord, error)
}
