package grid

import (
	"context"

	"github.com/voltmesh/voltmesh/core"
)

// SignalSource provides current and forecast energy signals.
//
// Implementations may call external APIs (carbon intensity feeds, supplier
// tariff APIs, grid operator event streams) and should respect the supplied
// context for cancellation.
type SignalSource interface {
	// Current returns the signal for the present hour.
	Current(ctx context.Context) (core.EnergySignal, error)
	// Forecast returns hourly signals for the next `hours` hours, starting now.
	Forecast(ctx context.Context, hours int) ([]core.EnergySignal, error)
}

// P415Event describes an active demand-flexibility event.
type P415Event struct {
	Active              bool    `json:"active"`
	RevenuePerKWh       float64 `json:"revenue_per_kwh"`
	RequiredReductionKW float64 `json:"required_reduction_kw"`
	DurationHours       float64 `json:"duration_hours"`
}
