package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tourdesk/agent-commissions/pkg/api"
	"github.com/tourdesk/agent-commissions/pkg/commission"
	"github.com/tourdesk/agent-commissions/pkg/mapping"
	"github.com/tourdesk/agent-commissions/pkg/models"
	"github.com/tourdesk/agent-commissions/pkg/paylink"
	"github.com/tourdesk/agent-commissions/pkg/refcode"
	"github.com/tourdesk/agent-commissions/pkg/scheduler"
	"github.com/tourdesk/agent-commissions/pkg/storage"
)

// ApiHandler holds the application's dependencies for the HTTP surface.
type ApiHandler struct {
	Store   storage.Storage
	Trigger *commission.Trigger
	Queue   scheduler.Scheduler
	Gateway *paylink.Client
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(store storage.Storage, trigger *commission.Trigger, queue scheduler.Scheduler, gateway *paylink.Client) *ApiHandler {
	return &ApiHandler{Store: store, Trigger: trigger, Queue: queue, Gateway: gateway}
}

// RegisterRoutes mounts the API on the router.
func (h *ApiHandler) RegisterRoutes(r chi.Router) {
	r.Post("/agents", h.CreateAgent)
	r.Get("/agents", h.ListAgents)
	r.Get("/agents/{agentId}", h.GetAgentById)
	r.Post("/bookings/confirm", h.ConfirmBooking)
	r.Get("/distributions/{bookingId}", h.GetDistributionByBookingId)
	r.Post("/paylinks", h.CreatePaymentLink)
	r.Post("/paylinks/callback", h.PaymentCallback)
}

// CreateAgent handles agent onboarding.
func (h *ApiHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var newAgent api.NewAgent
	if err := json.NewDecoder(r.Body).Decode(&newAgent); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	// The referral forest stays acyclic because a new agent can only point at
	// an agent that already exists, never at itself or a descendant.
	if newAgent.ParentAgentID != "" {
		if _, err := h.Store.GetAgent(r.Context(), newAgent.ParentAgentID); err != nil {
			if errors.Is(err, storage.ErrAgentNotFound) {
				http.Error(w, "Parent agent not found", http.StatusUnprocessableEntity)
			} else {
				http.Error(w, fmt.Sprintf("Failed to look up parent agent: %v", err), http.StatusInternalServerError)
			}
			return
		}
	}

	code, err := refcode.Generate()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate display code: %v", err), http.StatusInternalServerError)
		return
	}

	created, err := h.Store.CreateAgent(r.Context(), &models.Agent{
		ID:            uuid.New().String(),
		DisplayCode:   code,
		ParentAgentID: newAgent.ParentAgentID,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create agent: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, mapping.ToApiAgent(created))
}

// GetAgentById handles the logic for retrieving an agent.
func (h *ApiHandler) GetAgentById(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	agent, err := h.Store.GetAgent(r.Context(), agentID)
	if err != nil {
		if errors.Is(err, storage.ErrAgentNotFound) {
			http.Error(w, "Agent not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve agent: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiAgent(agent))
}

// ListAgents handles the logic for retrieving all agents.
func (h *ApiHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Store.ListAgents(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve agents: %v", err), http.StatusInternalServerError)
		return
	}

	apiAgents := make([]*api.Agent, len(agents))
	for i, agent := range agents {
		apiAgents[i] = mapping.ToApiAgent(&agent)
	}

	writeJSON(w, http.StatusOK, apiAgents)
}

// ConfirmBooking is the synchronous entry point for confirmed payments.
func (h *ApiHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var confirmed api.ConfirmedBooking
	if err := json.NewDecoder(r.Body).Decode(&confirmed); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	booking := mapping.ToDomainBooking(&confirmed)
	if err := commission.ValidateBooking(booking); err != nil {
		h.writeDistributionError(w, nil, err)
		return
	}

	// Persist the booking first so a mid-chain failure can be picked up by
	// reconciliation, which re-reads bookings by ID.
	if err := h.Store.PutBooking(r.Context(), booking); err != nil {
		http.Error(w, fmt.Sprintf("Failed to store booking: %v", err), http.StatusInternalServerError)
		return
	}

	result, err := h.Trigger.OnPaymentConfirmed(r.Context(), booking)
	if err != nil {
		h.writeDistributionError(w, result, err)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiResult(result))
}

// writeDistributionError maps engine errors to HTTP responses. Mid-chain
// failures still carry the partial result so the caller can see which hops
// were committed before the failure.
func (h *ApiHandler) writeDistributionError(w http.ResponseWriter, result *commission.Result, err error) {
	type distributionError struct {
		Error  string                  `json:"error"`
		Result *api.DistributionResult `json:"result,omitempty"`
	}

	body := distributionError{Error: err.Error()}
	if result != nil {
		body.Result = mapping.ToApiResult(result)
	}

	switch {
	case errors.Is(err, commission.ErrInvalidBooking):
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, storage.ErrAgentNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, storage.ErrLedgerUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

// GetDistributionByBookingId retrieves the distribution record for a booking.
func (h *ApiHandler) GetDistributionByBookingId(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	rec, err := h.Store.GetDistribution(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrDistributionNotFound) {
			http.Error(w, "Distribution not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve distribution: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiDistribution(rec))
}

// CreatePaymentLink stores the booking facts and creates a collect link at
// the external gateway.
func (h *ApiHandler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req api.NewPaymentLink
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	booking := mapping.ToDomainBooking(&req.Booking)
	if err := commission.ValidateBooking(booking); err != nil {
		http.Error(w, fmt.Sprintf("Invalid booking: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.Store.PutBooking(r.Context(), booking); err != nil {
		http.Error(w, fmt.Sprintf("Failed to store booking: %v", err), http.StatusInternalServerError)
		return
	}

	link, err := h.Gateway.CreateCollectLink(r.Context(), &paylink.CollectRequest{
		Amount:     booking.TotalAmount(),
		Currency:   booking.Currency,
		Invoice:    fmt.Sprintf("Tour %s booking %s", booking.TourID, booking.BookingID),
		ExternalID: booking.BookingID,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create payment link: %v", err), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, &api.PaymentLink{
		BookingID:  booking.BookingID,
		CollectURL: link.CollectURL,
	})
}

// PaymentCallback accepts the gateway's confirmation callback and enqueues
// the booking for asynchronous distribution. The HTTP process never runs
// distributions inline from the webhook; at-least-once SQS delivery plus the
// idempotent ledger give the exactly-once effect.
func (h *ApiHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.Gateway.VerifyCallback(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cb, err := paylink.ParseCallback(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid callback: %v", err), http.StatusBadRequest)
		return
	}

	if !cb.Paid() {
		// Failed or abandoned collections carry no commission.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	booking, err := h.Store.GetBooking(r.Context(), cb.ExternalID)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			http.Error(w, "Unknown booking", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to load booking: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if err := h.Queue.EnqueueBooking(r.Context(), booking); err != nil {
		http.Error(w, fmt.Sprintf("Failed to enqueue booking: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
