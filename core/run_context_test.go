package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/voltmesh/logging"
)

func newTestRunContext(emit chan Event) *RunContext {
	return NewRunContext(
		context.Background(),
		"run-1",
		AgentInfo{Name: "test", Type: "test"},
		emit,
		logging.NoOpLogger{},
	)
}

func TestRunContext_WorkloadsCopiedOnReadAndWrite(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))

	in := []Workload{{JobID: "JOB-001", Name: "ML Model Training"}}
	rc.SetWorkloads(in)

	in[0].JobID = "mutated"
	got := rc.Workloads()
	require.Len(t, got, 1)
	assert.Equal(t, "JOB-001", got[0].JobID)

	got[0].JobID = "mutated-again"
	assert.Equal(t, "JOB-001", rc.Workloads()[0].JobID)
}

func TestRunContext_SignalsAndDecisions(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))

	_, ok := rc.CurrentSignal()
	assert.False(t, ok)

	now := time.Now().UTC()
	current := EnergySignal{Timestamp: now, PricePerKWh: 0.25}
	forecast := []EnergySignal{{Timestamp: now}, {Timestamp: now.Add(time.Hour)}}
	rc.SetSignals(current, forecast)

	cur, ok := rc.CurrentSignal()
	require.True(t, ok)
	assert.Equal(t, 0.25, cur.PricePerKWh)
	assert.Len(t, rc.Forecast(), 2)

	rc.SetDecisions([]Decision{{JobID: "JOB-001", Start: now, End: now.Add(2 * time.Hour)}})
	assert.Len(t, rc.Decisions(), 1)

	rc.SetSavings(Savings{CostSavings: 12.5})
	s, ok := rc.Savings()
	require.True(t, ok)
	assert.Equal(t, 12.5, s.CostSavings)

	rc.SetOrderID("ORDER-abc")
	assert.Equal(t, "ORDER-abc", rc.OrderID())
}

func TestRunContext_EmitEvent(t *testing.T) {
	emit := make(chan Event, 1)
	rc := newTestRunContext(emit)

	err := rc.EmitEvent(NewEvent("", "grid", EventEnergySignals, map[string]any{"forecast_hours": 24}))
	require.NoError(t, err)

	ev := <-emit
	assert.Equal(t, "run-1", ev.RunID, "RunID should be filled in from the context")
	assert.Equal(t, EventEnergySignals, ev.Type)
	assert.NotEmpty(t, ev.ID)
}

func TestRunContext_EmitEventCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered channel with no reader: only cancellation can unblock.
	rc := NewRunContext(ctx, "run-2", AgentInfo{}, make(chan Event), logging.NoOpLogger{})

	err := rc.EmitEvent(NewEvent("run-2", "grid", EventEnergySignals, nil))
	assert.ErrorIs(t, err, context.Canceled)
}
