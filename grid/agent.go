package grid

import (
	"fmt"

	"github.com/voltmesh/voltmesh/core"
)

// Agent fetches the current signal plus the forecast horizon and publishes
// both into the run state for the optimizer.
type Agent struct {
	source       SignalSource
	horizonHours int
}

// NewAgent wraps a signal source in the core.Agent contract. horizonHours
// values below 1 fall back to 24.
func NewAgent(source SignalSource, horizonHours int) *Agent {
	if horizonHours < 1 {
		horizonHours = 24
	}
	return &Agent{source: source, horizonHours: horizonHours}
}

// Name implements core.Agent.
func (a *Agent) Name() string { return "grid" }

// Description implements core.Agent.
func (a *Agent) Description() string {
	return "Gathers current and forecast energy signals from the grid"
}

// Run implements core.Agent.
func (a *Agent) Run(rc *core.RunContext) error {
	current, err := a.source.Current(rc.Context)
	if err != nil {
		return fmt.Errorf("fetch current signal: %w", err)
	}

	forecast, err := a.source.Forecast(rc.Context, a.horizonHours)
	if err != nil {
		return fmt.Errorf("fetch forecast: %w", err)
	}

	rc.SetSignals(current, forecast)
	rc.LogInfo("gathered energy signals",
		"current_price", current.PricePerKWh,
		"current_carbon", current.CarbonIntensity,
		"forecast_hours", len(forecast),
	)

	if err := rc.EmitEvent(core.NewEvent(rc.RunID, a.Name(), core.EventEnergySignals, map[string]any{
		"current_price":  current.PricePerKWh,
		"current_carbon": current.CarbonIntensity,
		"forecast_hours": len(forecast),
	})); err != nil {
		return fmt.Errorf("emit signals event: %w", err)
	}
	return nil
}

var _ core.Agent = (*Agent)(nil)
