package mapping

import (
	"github.com/tourdesk/agent-commissions/pkg/api"
	"github.com/tourdesk/agent-commissions/pkg/commission"
	"github.com/tourdesk/agent-commissions/pkg/models"
)

// ToApiAgent converts a domain Agent model to an API Agent model.
func ToApiAgent(agent *models.Agent) *api.Agent {
	return &api.Agent{
		ID:            agent.ID,
		DisplayCode:   agent.DisplayCode,
		ParentAgentID: agent.ParentAgentID,
		WalletBalance: agent.WalletBalance,
		CreatedAt:     agent.CreatedAt,
	}
}

// ToDomainBooking converts a ConfirmedBooking payload to a domain Booking.
func ToDomainBooking(b *api.ConfirmedBooking) *models.Booking {
	return &models.Booking{
		BookingID:       b.BookingID,
		TourID:          b.TourID,
		PayingAgentID:   b.PayingAgentID,
		PricePerHead:    b.PricePerHead,
		ActualOccupancy: b.ActualOccupancy,
		GivenOccupancy:  b.GivenOccupancy,
		StartDate:       b.StartDate,
		Currency:        b.Currency,
	}
}

// ToApiResult converts a distribution result to its API model.
func ToApiResult(result *commission.Result) *api.DistributionResult {
	hops := make([]api.AppliedHop, len(result.Hops))
	for i, hop := range result.Hops {
		hops[i] = api.AppliedHop{
			AgentID:  hop.AgentID,
			Level:    hop.Level,
			Amount:   hop.Amount,
			Replayed: hop.Replayed,
		}
	}
	return &api.DistributionResult{
		BookingID: result.BookingID,
		Hops:      hops,
		Remaining: result.Remaining,
		Replayed:  result.Replayed,
	}
}

// ToApiCommissionEntry converts a domain ledger entry to its API model.
func ToApiCommissionEntry(entry *models.CommissionEntry) *api.CommissionEntry {
	return &api.CommissionEntry{
		EntryID:         entry.EntryID,
		AuditID:         entry.AuditID,
		BookingID:       entry.BookingID,
		AgentID:         entry.AgentID,
		Level:           entry.Level,
		RateBasisPoints: entry.RateBasisPoints,
		Amount:          entry.Amount,
		Description:     entry.Description,
		Timestamp:       entry.Timestamp,
	}
}

// ToApiDistribution converts a distribution record to its API model.
func ToApiDistribution(rec *models.DistributionRecord) *api.Distribution {
	return &api.Distribution{
		BookingID:      rec.BookingID,
		PayingAgentID:  rec.PayingAgentID,
		TotalAmount:    rec.TotalAmount,
		SellThroughPct: rec.SellThroughPct,
		Status:         string(rec.Status),
		HopsApplied:    rec.HopsApplied,
		Remaining:      rec.Remaining,
		LastError:      rec.LastError,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}
