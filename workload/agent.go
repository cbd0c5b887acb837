package workload

import (
	"fmt"

	"github.com/voltmesh/voltmesh/core"
)

// Agent exposes the queue as the first step of an optimization cycle: it
// publishes the flexible workloads and the capacity envelope into the run
// state and aborts the cycle when nothing can be shifted.
type Agent struct {
	queue *Queue
}

// NewAgent wraps a queue in the core.Agent contract.
func NewAgent(queue *Queue) *Agent {
	return &Agent{queue: queue}
}

// Name implements core.Agent.
func (a *Agent) Name() string { return "workload" }

// Description implements core.Agent.
func (a *Agent) Description() string {
	return "Gathers flexible compute workloads and the site capacity envelope"
}

// Queue returns the underlying workload queue.
func (a *Agent) Queue() *Queue { return a.queue }

// Run implements core.Agent.
func (a *Agent) Run(rc *core.RunContext) error {
	flexible := a.queue.Flexible()
	if len(flexible) == 0 {
		return core.ErrNoFlexibleWorkloads
	}

	rc.SetWorkloads(flexible)
	rc.SetCapacity(a.queue.Capacity())
	rc.LogInfo("gathered flexible workloads", "count", len(flexible))

	ids := make([]string, len(flexible))
	for i, w := range flexible {
		ids[i] = w.JobID
	}
	if err := rc.EmitEvent(core.NewEvent(rc.RunID, a.Name(), core.EventWorkloads, map[string]any{
		"count":        len(flexible),
		"workload_ids": ids,
	})); err != nil {
		return fmt.Errorf("emit workloads event: %w", err)
	}
	return nil
}

var _ core.Agent = (*Agent)(nil)
