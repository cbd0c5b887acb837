package workload

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
)

var fixedNow = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func newTestQueue() *Queue {
	return NewQueue(1000, func(o *QueueOptions) {
		o.Now = func() time.Time { return fixedNow }
		o.Rand = rand.New(rand.NewSource(42))
	})
}

func TestQueue_FlexibleFiltersTightDeadlines(t *testing.T) {
	q := newTestQueue()

	q.Add(core.Workload{
		JobID: "JOB-001", DurationHours: 2,
		Deadline: fixedNow.Add(12 * time.Hour), // 12h left, needs 2+2h
	})
	q.Add(core.Workload{
		JobID: "JOB-002", DurationHours: 4,
		Deadline: fixedNow.Add(5 * time.Hour), // 5h left, needs 4+2h: too tight
	})
	q.Add(core.Workload{
		JobID: "JOB-003", DurationHours: 1, Status: core.StatusRunning,
		Deadline: fixedNow.Add(24 * time.Hour), // not pending
	})

	flexible := q.Flexible()
	require.Len(t, flexible, 1)
	assert.Equal(t, "JOB-001", flexible[0].JobID)
}

func TestQueue_UpdateStatus(t *testing.T) {
	q := newTestQueue()
	q.Add(core.Workload{JobID: "JOB-001", Deadline: fixedNow.Add(24 * time.Hour)})

	require.NoError(t, q.UpdateStatus("JOB-001", core.StatusScheduled))
	assert.Equal(t, core.StatusScheduled, q.All()[0].Status)

	err := q.UpdateStatus("JOB-404", core.StatusFailed)
	assert.ErrorIs(t, err, core.ErrWorkloadNotFound)
}

func TestQueue_Capacity(t *testing.T) {
	q := newTestQueue()
	c := q.Capacity()
	assert.Equal(t, 1000.0, c.MaxKW)
	assert.Equal(t, 1000.0, c.AvailableKW)
}

func TestQueue_SeedSamples(t *testing.T) {
	q := newTestQueue()
	q.SeedSamples(5)

	all := q.All()
	require.Len(t, all, 5)
	assert.Equal(t, "JOB-001", all[0].JobID)
	assert.Equal(t, "ML Model Training #1", all[0].Name)
	for _, w := range all {
		assert.Equal(t, core.StatusPending, w.Status)
		assert.True(t, w.Deadline.After(fixedNow.Add(12*time.Hour-time.Second)))
		assert.True(t, w.Deadline.Before(fixedNow.Add(49*time.Hour)))
		assert.Equal(t, fixedNow, w.EarliestStart)
	}
}

func TestAgent_RunPublishesWorkloads(t *testing.T) {
	q := newTestQueue()
	q.SeedSamples(3)
	a := NewAgent(q)

	emit := make(chan core.Event, 4)
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, emit, logging.NoOpLogger{})

	require.NoError(t, a.Run(rc))

	assert.Len(t, rc.Workloads(), 3)
	capSnap, ok := rc.Capacity()
	require.True(t, ok)
	assert.Equal(t, 1000.0, capSnap.MaxKW)

	ev := <-emit
	assert.Equal(t, core.EventWorkloads, ev.Type)
	assert.Equal(t, 3, ev.Data["count"])
}

func TestAgent_RunNoFlexibleWorkloads(t *testing.T) {
	a := NewAgent(newTestQueue())
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, make(chan core.Event, 1), logging.NoOpLogger{})

	err := a.Run(rc)
	assert.ErrorIs(t, err, core.ErrNoFlexibleWorkloads)
}
