package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
)

// treeCO2KgPerYear is the rough annual CO2 uptake of one tree, used for the
// settlement report's equivalence figure.
const treeCO2KgPerYear = 25

// Trail signs and records events, verifies stored entries and produces the
// settlement report. It is the audit-side consumer of the engine's event
// stream.
type Trail struct {
	store  Store
	logger logging.Logger
}

// NewTrail constructs a trail over the given store.
func NewTrail(store Store, logger logging.Logger) *Trail {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Trail{store: store, logger: logger}
}

// Store returns the underlying entry store.
func (t *Trail) Store() Store { return t.store }

// Record signs an event and appends it to the trail.
func (t *Trail) Record(ctx context.Context, ev core.Event) error {
	entry, err := NewEntry(ev)
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	if err := t.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	t.logger.Debug("audit event recorded",
		"event_type", ev.Type, "job_id", ev.JobID, "transaction_id", ev.TransactionID)
	return nil
}

// Drain records every event from the channel until it closes. It is the
// loop the engine runs alongside an optimization cycle.
func (t *Trail) Drain(ctx context.Context, events <-chan core.Event) error {
	for ev := range events {
		if err := t.Record(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Verify recomputes every entry signature. It returns the number of entries
// checked, and an error naming the first entry whose signature does not
// match its content.
func (t *Trail) Verify(ctx context.Context) (int, error) {
	entries, err := t.store.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if !e.Valid() {
			return i, fmt.Errorf("integrity check failed for entry %s (%s) at %s",
				e.ID, e.Type, e.Timestamp.Format(time.RFC3339))
		}
	}
	return len(entries), nil
}

// Export writes the complete trail as an indented JSON array.
func (t *Trail) Export(ctx context.Context, w io.Writer) error {
	entries, err := t.store.List(ctx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode audit trail: %w", err)
	}
	return nil
}

// FinancialMetrics aggregates the money side of a settlement report.
type FinancialMetrics struct {
	TotalCostSavingsGBP float64 `json:"total_cost_savings_gbp"`
	TotalP415RevenueGBP float64 `json:"total_p415_revenue_gbp"`
	NetBenefitGBP       float64 `json:"net_benefit_gbp"`
}

// EnvironmentalMetrics aggregates the carbon side of a settlement report.
type EnvironmentalMetrics struct {
	TotalCarbonSavingsKg   float64 `json:"total_carbon_savings_kg"`
	EquivalentTreesPlanted float64 `json:"equivalent_trees_planted"`
}

// SettlementReport summarizes the financial and environmental outcome of the
// recorded cycles.
type SettlementReport struct {
	Timestamp     time.Time            `json:"report_timestamp"`
	JobsCompleted int                  `json:"total_jobs_completed"`
	Financial     FinancialMetrics     `json:"financial_metrics"`
	Environmental EnvironmentalMetrics `json:"environmental_metrics"`
	TrailEntries  int                  `json:"audit_trail_entries"`
}

// Settlement builds the settlement report from schedule_optimized savings
// and job_completed counts across the whole trail.
func (t *Trail) Settlement(ctx context.Context) (SettlementReport, error) {
	entries, err := t.store.List(ctx)
	if err != nil {
		return SettlementReport{}, err
	}

	var costSavings, carbonSavings, revenue float64
	var completed int
	for _, e := range entries {
		switch e.Type {
		case core.EventScheduled:
			s, ok := savingsFrom(e.Data)
			if !ok {
				continue
			}
			costSavings += s.CostSavings
			carbonSavings += s.CarbonSavingsKg
			revenue += s.P415Revenue
		case core.EventJobCompleted:
			completed++
		}
	}

	return SettlementReport{
		Timestamp:     time.Now().UTC(),
		JobsCompleted: completed,
		Financial: FinancialMetrics{
			TotalCostSavingsGBP: round2(costSavings),
			TotalP415RevenueGBP: round2(revenue),
			NetBenefitGBP:       round2(costSavings + revenue),
		},
		Environmental: EnvironmentalMetrics{
			TotalCarbonSavingsKg:   round2(carbonSavings),
			EquivalentTreesPlanted: round1(carbonSavings / treeCO2KgPerYear),
		},
		TrailEntries: len(entries),
	}, nil
}

// savingsFrom extracts a core.Savings from an event payload regardless of
// whether it still holds the struct or a decoded map (after persistence).
func savingsFrom(data map[string]any) (core.Savings, bool) {
	raw, ok := data["savings"]
	if !ok {
		return core.Savings{}, false
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return core.Savings{}, false
	}
	var s core.Savings
	if err := json.Unmarshal(encoded, &s); err != nil {
		return core.Savings{}, false
	}
	return s, true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
