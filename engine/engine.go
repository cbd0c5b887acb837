package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voltmesh/voltmesh/audit"
	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
	"github.com/voltmesh/voltmesh/notify"
)

// defaultEventBufferSize sets the emit channel buffer. A cycle produces a
// bounded number of events (a handful per agent plus one per Beckn action),
// so a small buffer keeps agents from blocking on the audit writer.
const defaultEventBufferSize = 64

// Options configures an Engine instance.
type Options struct {
	// Logger receives engine and agent log output. Defaults to NoOpLogger.
	Logger logging.Logger

	// Notifier is told about confirmed energy window orders.
	// Defaults to notify.NoopNotifier.
	Notifier notify.Notifier

	// EventBufferSize sets the emit channel buffer size.
	EventBufferSize int

	// Now supplies timestamps. Overridable for tests.
	Now func() time.Time
}

// Engine runs the optimization cycle. Agents execute sequentially against a
// shared RunContext while the audit trail drains their events concurrently.
type Engine struct {
	agents   []core.Agent
	trail    *audit.Trail
	notifier notify.Notifier
	logger   logging.Logger
	bufSize  int
	now      func() time.Time
}

// New creates an Engine that runs the given agents in order. The trail must
// not be nil; every emitted event is signed and appended to it.
func New(agents []core.Agent, trail *audit.Trail, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		Notifier:        notify.NoopNotifier{},
		EventBufferSize: defaultEventBufferSize,
		Now:             time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.EventBufferSize <= 0 {
		opts.EventBufferSize = defaultEventBufferSize
	}
	return &Engine{
		agents:   agents,
		trail:    trail,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		bufSize:  opts.EventBufferSize,
		now:      opts.Now,
	}
}

// Result summarizes one optimization cycle.
type Result struct {
	RunID      string                 `json:"run_id"`
	Decisions  []core.Decision        `json:"decisions"`
	Savings    core.Savings           `json:"savings"`
	OrderID    string                 `json:"order_id,omitempty"`
	Settlement audit.SettlementReport `json:"settlement"`
	// Skipped is true when no flexible workload was available and the
	// cycle ended without scheduling anything.
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"-"`
}

// Run executes one full cycle and returns its result. A queue with no
// flexible workloads is not an error: the cycle completes with Skipped set.
// Any other agent failure aborts the cycle after the already-emitted events
// have been recorded.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	runID := core.NewID()
	started := e.now()

	logger := e.logger
	if vl, ok := logger.(*logging.VoltmeshLogger); ok {
		logger = vl.WithRun(runID)
	}
	logger.Info("cycle started", "agents", len(e.agents))

	events := make(chan core.Event, e.bufSize)
	drained := make(chan error, 1)
	go func() {
		drained <- e.trail.Drain(ctx, events)
	}()

	rc := core.NewRunContext(ctx, runID, core.AgentInfo{Name: "engine", Type: "engine"}, events, logger)

	result, runErr := e.runAgents(rc, started)

	close(events)
	if err := <-drained; err != nil {
		if runErr == nil {
			runErr = fmt.Errorf("record audit trail: %w", err)
		} else {
			logger.Error("audit trail drain failed", "error", err)
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	report, err := e.trail.Settlement(ctx)
	if err != nil {
		return nil, fmt.Errorf("build settlement report: %w", err)
	}
	result.Settlement = report

	if result.OrderID != "" {
		notice := notify.OrderNotice{
			RunID:         runID,
			OrderID:       result.OrderID,
			DecisionCount: len(result.Decisions),
			TotalBenefit:  result.Savings.TotalBenefit,
			ConfirmedAt:   e.now().UTC(),
		}
		if err := e.notifier.OrderConfirmed(ctx, notice); err != nil {
			logger.Error("order notification failed", "order_id", result.OrderID, "error", err)
		}
	}

	logger.Info("cycle completed",
		"decisions", len(result.Decisions),
		"order_id", result.OrderID,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}

func (e *Engine) runAgents(rc *core.RunContext, started time.Time) (*Result, error) {
	if err := rc.EmitEvent(core.NewEvent(rc.RunID, "engine", core.EventCycleStarted, map[string]any{
		"agents": len(e.agents),
	})); err != nil {
		return nil, err
	}

	skipped := false
	for _, agent := range e.agents {
		if err := rc.Err(); err != nil {
			return nil, err
		}
		if err := agent.Run(rc); err != nil {
			if errors.Is(err, core.ErrNoFlexibleWorkloads) {
				rc.LogInfo("nothing to schedule", "agent", agent.Name())
				skipped = true
				break
			}
			return nil, fmt.Errorf("agent %s: %w", agent.Name(), err)
		}
	}

	result := &Result{
		RunID:     rc.RunID,
		Decisions: rc.Decisions(),
		OrderID:   rc.OrderID(),
		Skipped:   skipped,
		Duration:  e.now().Sub(started),
	}
	if s, ok := rc.Savings(); ok {
		result.Savings = s
	}

	if err := rc.EmitEvent(core.NewEvent(rc.RunID, "engine", core.EventCycleCompleted, map[string]any{
		"decisions_count":  len(result.Decisions),
		"order_id":         result.OrderID,
		"skipped":          skipped,
		"duration_seconds": result.Duration.Seconds(),
	})); err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteJob marks a scheduled workload as finished and records a completion
// event outside any cycle. It backs the job completion API and keeps the
// settlement report's completed job count accurate.
func (e *Engine) CompleteJob(ctx context.Context, jobID string) error {
	ev := core.NewEvent(core.NewID(), "engine", core.EventJobCompleted, map[string]any{
		"job_id": jobID,
	}).WithJob(jobID)
	if err := e.trail.Record(ctx, ev); err != nil {
		return fmt.Errorf("record job completion: %w", err)
	}
	return nil
}
