package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tourdesk/agent-commissions/pkg/api"
	"github.com/tourdesk/agent-commissions/pkg/mapping"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

const defaultLimit = 20

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Store storage.LedgerReader
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store storage.LedgerReader) *LedgerHandler {
	return &LedgerHandler{Store: store}
}

// RegisterRoutes mounts the ledger read endpoints on the router.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ledger", h.ListEntries)
	r.Get("/agents/{agentId}/ledger", h.ListEntriesByAgent)
}

// ListEntries returns the most recent commission ledger entries.
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = int32(parsed)
	}

	entries, err := h.Store.ListEntries(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve ledger entries: %v", err), http.StatusInternalServerError)
		return
	}

	h.writeEntries(w, entries)
}

// ListEntriesByAgent returns every commission credited to one agent.
func (h *LedgerHandler) ListEntriesByAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	entries, err := h.Store.ListEntriesByAgent(r.Context(), agentID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve ledger entries: %v", err), http.StatusInternalServerError)
		return
	}

	h.writeEntries(w, entries)
}

func (h *LedgerHandler) writeEntries(w http.ResponseWriter, entries []models.CommissionEntry) {
	apiEntries := make([]*api.CommissionEntry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = mapping.ToApiCommissionEntry(&entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiEntries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
