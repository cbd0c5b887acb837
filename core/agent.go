package core

// Agent defines the interface every voltmesh agent must implement.
//
// Agents are the processing units of an optimization cycle. The engine runs
// them sequentially against a shared RunContext: each agent reads the state
// its predecessors produced, contributes its own, and emits Events that the
// audit trail records.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Return an error to stop the cycle, nil to hand over to the next agent
type Agent interface {
	Name() string
	Description() string
	Run(rc *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "grid", "decision").
type AgentInfo struct{ Name, Type string }
