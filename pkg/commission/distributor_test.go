package commission

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
	"github.com/tourdesk/agent-commissions/pkg/storage/memory"
)

// seedChain creates n agents where agent i's parent is agent i+1; the last
// one is a root. Returns the IDs leaf-first.
func seedChain(t *testing.T, store *memory.Store, n int) []string {
	t.Helper()

	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("agent-%d", i)
	}
	// Create root-first so parents always exist.
	for i := n - 1; i >= 0; i-- {
		parent := ""
		if i < n-1 {
			parent = ids[i+1]
		}
		_, err := store.CreateAgent(context.Background(), &models.Agent{
			ID:            ids[i],
			DisplayCode:   fmt.Sprintf("AGT-%06d", i),
			ParentAgentID: parent,
		})
		require.NoError(t, err)
	}
	return ids
}

func TestDistribute(t *testing.T) {
	ctx := context.Background()

	t.Run("worked example", func(t *testing.T) {
		// Tour priced at 90000.00 sold at 15 of 50 seats: sell-through 30%,
		// level-1 rate 7%, level-2 rate 2.5%.
		store := memory.New()
		ids := seedChain(t, store, 3)
		d := NewDistributor(store, store)

		result, err := d.Distribute(ctx, "booking-1", ids[0], 9000000, 30)
		require.NoError(t, err)

		require.Len(t, result.Hops, 3)
		assert.Equal(t, AppliedHop{AgentID: ids[0], Level: 1, Amount: 630000}, result.Hops[0])
		assert.Equal(t, AppliedHop{AgentID: ids[1], Level: 2, Amount: 209250}, result.Hops[1])
		// Level 3 reuses the ancestor rate: 2.5% of 8160750 = 204018.75, truncated.
		assert.Equal(t, AppliedHop{AgentID: ids[2], Level: 3, Amount: 204018}, result.Hops[2])
		assert.Equal(t, int64(9000000-630000-209250-204018), result.Remaining)

		leaf, err := store.GetAgent(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, int64(630000), leaf.WalletBalance)
	})

	t.Run("conservation across chain lengths", func(t *testing.T) {
		for _, n := range []int{1, 3, 10} {
			t.Run(fmt.Sprintf("chain of %d", n), func(t *testing.T) {
				store := memory.New()
				ids := seedChain(t, store, n)
				d := NewDistributor(store, store)

				const total = int64(1234567)
				result, err := d.Distribute(ctx, "booking-1", ids[0], total, 57.5)
				require.NoError(t, err)
				require.Len(t, result.Hops, n)

				var sum int64
				for _, hop := range result.Hops {
					sum += hop.Amount
				}
				assert.Equal(t, total, sum+result.Remaining)

				// Balances must mirror the hop amounts exactly.
				for i, hop := range result.Hops {
					agent, err := store.GetAgent(ctx, ids[i])
					require.NoError(t, err)
					assert.Equal(t, hop.Amount, agent.WalletBalance)
				}
			})
		}
	})

	t.Run("single root keeps level 1 rate only", func(t *testing.T) {
		store := memory.New()
		ids := seedChain(t, store, 1)
		d := NewDistributor(store, store)

		result, err := d.Distribute(ctx, "booking-1", ids[0], 10000, 70)
		require.NoError(t, err)
		require.Len(t, result.Hops, 1)
		assert.Equal(t, int64(1000), result.Hops[0].Amount)
		assert.Equal(t, int64(9000), result.Remaining)
	})

	t.Run("zero amount booking still records hops", func(t *testing.T) {
		store := memory.New()
		ids := seedChain(t, store, 2)
		d := NewDistributor(store, store)

		result, err := d.Distribute(ctx, "booking-1", ids[0], 0, 30)
		require.NoError(t, err)
		require.Len(t, result.Hops, 2)
		assert.Equal(t, int64(0), result.Hops[0].Amount)
		assert.Equal(t, int64(0), result.Remaining)

		entries, err := store.ListEntriesByAgent(ctx, ids[0])
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("paying agent not found", func(t *testing.T) {
		store := memory.New()
		d := NewDistributor(store, store)

		result, err := d.Distribute(ctx, "booking-1", "ghost", 10000, 30)
		require.ErrorIs(t, err, storage.ErrAgentNotFound)
		assert.Empty(t, result.Hops)
		assert.Equal(t, int64(10000), result.Remaining)
	})

	t.Run("mid-chain agent not found keeps earlier hops", func(t *testing.T) {
		store := memory.New()
		_, err := store.CreateAgent(ctx, &models.Agent{ID: "leaf", ParentAgentID: "ghost"})
		require.NoError(t, err)
		d := NewDistributor(store, store)

		result, err := d.Distribute(ctx, "booking-1", "leaf", 10000, 30)
		require.ErrorIs(t, err, storage.ErrAgentNotFound)

		// The level-1 credit stands; the walk stopped at the missing parent.
		require.Len(t, result.Hops, 1)
		assert.Equal(t, int64(700), result.Hops[0].Amount)
		assert.Equal(t, int64(9300), result.Remaining)

		leaf, err := store.GetAgent(ctx, "leaf")
		require.NoError(t, err)
		assert.Equal(t, int64(700), leaf.WalletBalance)
	})

	t.Run("cycle detected", func(t *testing.T) {
		store := memory.New()
		_, err := store.CreateAgent(ctx, &models.Agent{ID: "a", ParentAgentID: "b"})
		require.NoError(t, err)
		_, err = store.CreateAgent(ctx, &models.Agent{ID: "b", ParentAgentID: "a"})
		require.NoError(t, err)
		d := NewDistributor(store, store)

		result, err := d.Distribute(ctx, "booking-1", "a", 10000, 70)
		require.ErrorIs(t, err, ErrCycleDetected)

		// Both distinct agents were credited before the guard fired; the walk
		// is bounded by the number of distinct agents.
		assert.Len(t, result.Hops, 2)
	})

	t.Run("replayed hops are flagged and not double credited", func(t *testing.T) {
		store := memory.New()
		ids := seedChain(t, store, 3)
		d := NewDistributor(store, store)

		first, err := d.Distribute(ctx, "booking-1", ids[0], 9000000, 30)
		require.NoError(t, err)

		second, err := d.Distribute(ctx, "booking-1", ids[0], 9000000, 30)
		require.NoError(t, err)

		assert.Equal(t, first.Remaining, second.Remaining)
		for i, hop := range second.Hops {
			assert.True(t, hop.Replayed)
			assert.Equal(t, first.Hops[i].Amount, hop.Amount)
		}

		// Balances unchanged by the replay.
		for i, hop := range first.Hops {
			agent, err := store.GetAgent(ctx, ids[i])
			require.NoError(t, err)
			assert.Equal(t, hop.Amount, agent.WalletBalance)
		}
	})
}

func TestEntryKey(t *testing.T) {
	assert.Equal(t, "b1#a1#2", EntryKey("b1", "a1", 2))
}
