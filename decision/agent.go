package decision

import (
	"fmt"

	"github.com/voltmesh/voltmesh/core"
)

// Agent runs the optimizer against the run state: it reads the workloads and
// forecast its predecessors gathered, stores the schedule and the savings
// summary, and aborts the cycle when nothing can be placed.
type Agent struct {
	optimizer *Optimizer
}

// NewAgent wraps an optimizer in the core.Agent contract.
func NewAgent(optimizer *Optimizer) *Agent {
	return &Agent{optimizer: optimizer}
}

// Name implements core.Agent.
func (a *Agent) Name() string { return "decision" }

// Description implements core.Agent.
func (a *Agent) Description() string {
	return "Chooses execution windows minimizing cost and carbon under SLA constraints"
}

// Run implements core.Agent.
func (a *Agent) Run(rc *core.RunContext) error {
	workloads := rc.Workloads()
	forecast := rc.Forecast()

	decisions := a.optimizer.Schedule(workloads, forecast)
	if len(decisions) == 0 {
		return core.ErrNoFeasibleSchedule
	}
	if len(decisions) < len(workloads) {
		rc.LogWarn("some workloads had no feasible window",
			"placed", len(decisions), "requested", len(workloads))
	}

	savings := a.optimizer.Savings(decisions, workloads, forecast)

	rc.SetDecisions(decisions)
	rc.SetSavings(savings)
	rc.LogInfo("schedule optimized",
		"decisions", len(decisions),
		"cost_savings", savings.CostSavings,
		"carbon_savings_kg", savings.CarbonSavingsKg,
		"p415_revenue", savings.P415Revenue,
	)

	if err := rc.EmitEvent(core.NewEvent(rc.RunID, a.Name(), core.EventScheduled, map[string]any{
		"decisions_count": len(decisions),
		"savings":         savings,
	})); err != nil {
		return fmt.Errorf("emit schedule event: %w", err)
	}
	return nil
}

var _ core.Agent = (*Agent)(nil)
