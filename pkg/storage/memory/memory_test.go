package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

func TestAgents(t *testing.T) {
	ctx := context.Background()
	store := New()

	t.Run("create and get", func(t *testing.T) {
		created, err := store.CreateAgent(ctx, &models.Agent{ID: "agent-1", DisplayCode: "AGT-ABC123"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)

		got, err := store.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		assert.Equal(t, "AGT-ABC123", got.DisplayCode)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		_, err := store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
		assert.ErrorIs(t, err, storage.ErrAgentExists)
	})

	t.Run("missing agent", func(t *testing.T) {
		_, err := store.GetAgent(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrAgentNotFound)
	})

	t.Run("returned agent is a copy", func(t *testing.T) {
		got, err := store.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		got.WalletBalance = 999999

		again, err := store.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		assert.Zero(t, again.WalletBalance)
	})
}

func TestCreditIdempotency(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
	require.NoError(t, err)

	entry := &models.CommissionEntry{EntryID: "b1#agent-1#1", AgentID: "agent-1", Amount: 500}

	first, creditedNow, err := store.Credit(ctx, entry)
	require.NoError(t, err)
	assert.True(t, creditedNow)

	second, creditedNow, err := store.Credit(ctx, entry)
	require.NoError(t, err)
	assert.False(t, creditedNow)
	assert.Equal(t, first.AuditID, second.AuditID)

	agent, err := store.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), agent.WalletBalance)
	assert.Equal(t, int64(2), agent.Version)
}

func TestConcurrentCredits(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
	require.NoError(t, err)

	const credits = 100
	var wg sync.WaitGroup
	for i := 0; i < credits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := store.Credit(ctx, &models.CommissionEntry{
				EntryID: fmt.Sprintf("b%d#agent-1#1", i),
				AgentID: "agent-1",
				Amount:  50,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	agent, err := store.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(credits*50), agent.WalletBalance)
}

func TestDistributions(t *testing.T) {
	ctx := context.Background()
	store := New()

	rec := &models.DistributionRecord{
		BookingID: "booking-1",
		Status:    models.STARTED,
		CreatedAt: time.Now().Add(-time.Hour),
	}

	t.Run("open is create-or-return", func(t *testing.T) {
		_, created, err := store.OpenDistribution(ctx, rec)
		require.NoError(t, err)
		assert.True(t, created)

		existing, created, err := store.OpenDistribution(ctx, rec)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, models.STARTED, existing.Status)
	})

	t.Run("stuck records found until finished", func(t *testing.T) {
		stuck, err := store.GetStuckDistributions(ctx, 20*time.Minute)
		require.NoError(t, err)
		require.Len(t, stuck, 1)

		require.NoError(t, store.FinishDistribution(ctx, "booking-1", models.COMPLETED, 2, 100, ""))

		stuck, err = store.GetStuckDistributions(ctx, 20*time.Minute)
		require.NoError(t, err)
		assert.Empty(t, stuck)
	})

	t.Run("finish on missing record", func(t *testing.T) {
		err := store.FinishDistribution(ctx, "ghost", models.COMPLETED, 0, 0, "")
		assert.ErrorIs(t, err, storage.ErrDistributionNotFound)
	})
}

func TestBookings(t *testing.T) {
	ctx := context.Background()
	store := New()

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.PutBooking(ctx, &models.Booking{BookingID: "booking-1", TourID: "tour-1"}))

		got, err := store.GetBooking(ctx, "booking-1")
		require.NoError(t, err)
		assert.Equal(t, "tour-1", got.TourID)
	})

	t.Run("missing booking", func(t *testing.T) {
		_, err := store.GetBooking(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrBookingNotFound)
	})
}
