package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/agent-commissions/pkg/api"
	"github.com/tourdesk/agent-commissions/pkg/handlers/ledger"
	"github.com/tourdesk/agent-commissions/pkg/models"
)

type stubLedger struct {
	entries   []models.CommissionEntry
	err       error
	lastLimit int32
}

func (s *stubLedger) ListEntries(_ context.Context, limit int32) ([]models.CommissionEntry, error) {
	s.lastLimit = limit
	return s.entries, s.err
}

func (s *stubLedger) ListEntriesByAgent(_ context.Context, agentID string) ([]models.CommissionEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.CommissionEntry
	for _, e := range s.entries {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func testRouter(stub *stubLedger) *chi.Mux {
	r := chi.NewRouter()
	ledger.NewLedgerHandler(stub).RegisterRoutes(r)
	return r
}

func TestListEntries(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		stub := &stubLedger{entries: []models.CommissionEntry{
			{EntryID: "booking-1#root#2", AgentID: "root", Amount: 209250},
			{EntryID: "booking-1#leaf#1", AgentID: "leaf", Amount: 630000},
		}}

		req := httptest.NewRequest(http.MethodGet, "/ledger", nil)
		rr := httptest.NewRecorder()
		testRouter(stub).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int32(20), stub.lastLimit)

		var returned []api.CommissionEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		require.Len(t, returned, 2)
		assert.Equal(t, "booking-1#root#2", returned[0].EntryID)
	})

	t.Run("With Limit", func(t *testing.T) {
		stub := &stubLedger{}

		req := httptest.NewRequest(http.MethodGet, "/ledger?limit=10", nil)
		rr := httptest.NewRecorder()
		testRouter(stub).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int32(10), stub.lastLimit)
	})

	t.Run("Invalid Limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ledger?limit=-1", nil)
		rr := httptest.NewRecorder()
		testRouter(&stubLedger{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Storage Error", func(t *testing.T) {
		stub := &stubLedger{err: assert.AnError}

		req := httptest.NewRequest(http.MethodGet, "/ledger", nil)
		rr := httptest.NewRecorder()
		testRouter(stub).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestListEntriesByAgent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		stub := &stubLedger{entries: []models.CommissionEntry{
			{EntryID: "booking-1#leaf#1", AgentID: "leaf", Amount: 630000},
			{EntryID: "booking-1#root#2", AgentID: "root", Amount: 209250},
			{EntryID: "booking-2#leaf#1", AgentID: "leaf", Amount: 70000},
		}}

		req := httptest.NewRequest(http.MethodGet, "/agents/leaf/ledger", nil)
		rr := httptest.NewRecorder()
		testRouter(stub).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var returned []api.CommissionEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		require.Len(t, returned, 2)
		assert.Equal(t, int64(630000), returned[0].Amount)
	})

	t.Run("Empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/agents/ghost/ledger", nil)
		rr := httptest.NewRecorder()
		testRouter(&stubLedger{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
