package core

import (
	"context"
	"sync"

	"github.com/voltmesh/voltmesh/logging"
)

// RunContext carries execution state & helpers for one optimization cycle.
// It encapsulates the mutable, per-run scope passed to an Agent's Run method:
//   - The ambient cancellation Context
//   - Identifiers (RunID, Agent info)
//   - The event emission channel consumed by the audit trail
//   - Shared cycle state produced and consumed by successive agents
//     (workloads, energy signals, decisions, savings, the procured order)
//
// Slice-valued state is copied on read and write so agents can never alias
// each other's buffers. All state accessors are safe for concurrent use.
type RunContext struct {
	Context context.Context
	RunID   string
	Agent   AgentInfo
	Emit    chan<- Event

	mu            sync.RWMutex
	workloads     []Workload
	currentSignal *EnergySignal
	forecast      []EnergySignal
	decisions     []Decision
	savings       *Savings
	capacity      *Capacity
	orderID       string

	*loggerAdapter
}

// NewRunContext constructs a RunContext with empty cycle state.
func NewRunContext(
	ctx context.Context,
	runID string,
	agent AgentInfo,
	emit chan<- Event,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Agent:         agent,
		Emit:          emit,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// EmitEvent sends an event to the engine unless the run has been cancelled.
func (rc *RunContext) EmitEvent(ev Event) error {
	if ev.RunID == "" {
		ev.RunID = rc.RunID
	}
	select {
	case rc.Emit <- ev:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}

// SetWorkloads stores the flexible workloads gathered for this cycle.
func (rc *RunContext) SetWorkloads(ws []Workload) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.workloads = append([]Workload(nil), ws...)
}

// Workloads returns a copy of the cycle's flexible workloads.
func (rc *RunContext) Workloads() []Workload {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return append([]Workload(nil), rc.workloads...)
}

// SetSignals stores the current signal and forecast horizon for this cycle.
func (rc *RunContext) SetSignals(current EnergySignal, forecast []EnergySignal) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	cur := current
	rc.currentSignal = &cur
	rc.forecast = append([]EnergySignal(nil), forecast...)
}

// CurrentSignal returns the cycle's current energy signal, if gathered.
func (rc *RunContext) CurrentSignal() (EnergySignal, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.currentSignal == nil {
		return EnergySignal{}, false
	}
	return *rc.currentSignal, true
}

// Forecast returns a copy of the cycle's forecast signals.
func (rc *RunContext) Forecast() []EnergySignal {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return append([]EnergySignal(nil), rc.forecast...)
}

// SetDecisions stores the optimizer's schedule for this cycle.
func (rc *RunContext) SetDecisions(ds []Decision) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.decisions = append([]Decision(nil), ds...)
}

// Decisions returns a copy of the cycle's schedule decisions.
func (rc *RunContext) Decisions() []Decision {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return append([]Decision(nil), rc.decisions...)
}

// SetSavings stores the savings summary computed for this cycle.
func (rc *RunContext) SetSavings(s Savings) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	sv := s
	rc.savings = &sv
}

// Savings returns the cycle's savings summary, if computed.
func (rc *RunContext) Savings() (Savings, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.savings == nil {
		return Savings{}, false
	}
	return *rc.savings, true
}

// SetCapacity stores the site capacity snapshot for this cycle.
func (rc *RunContext) SetCapacity(c Capacity) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	snap := c
	rc.capacity = &snap
}

// Capacity returns the cycle's capacity snapshot, if gathered.
func (rc *RunContext) Capacity() (Capacity, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.capacity == nil {
		return Capacity{}, false
	}
	return *rc.capacity, true
}

// SetOrderID stores the identifier of the order procured by the Beckn journey.
func (rc *RunContext) SetOrderID(id string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.orderID = id
}

// OrderID returns the procured order identifier, empty until the journey confirms.
func (rc *RunContext) OrderID() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.orderID
}
