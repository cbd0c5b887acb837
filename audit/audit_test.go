package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
)

func testEvent(eventType string, data map[string]any) core.Event {
	ev := core.NewEvent("run-1", "test", eventType, data)
	ev.Timestamp = time.Date(2026, time.March, 10, 9, 30, 0, 123456789, time.UTC)
	return ev
}

func TestSign_DeterministicAcrossRepresentations(t *testing.T) {
	// The same payload as a struct and as a decoded map must hash identically.
	savings := core.Savings{CostSavings: 12.5, CarbonSavingsKg: 3, P415Revenue: 1.25}

	asStruct := testEvent(core.EventScheduled, map[string]any{"savings": savings, "decisions_count": 2})

	encoded, err := json.Marshal(asStruct.Data)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	asMap := asStruct
	asMap.Data = decoded

	sig1, err := Sign(asStruct)
	require.NoError(t, err)
	sig2, err := Sign(asMap)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 64)
}

func TestSign_SensitiveToContent(t *testing.T) {
	ev := testEvent("beckn_confirm", map[string]any{"order_id": "order-1"})
	sig1, err := Sign(ev)
	require.NoError(t, err)

	ev.Data = map[string]any{"order_id": "order-2"}
	sig2, err := Sign(ev)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig2)
}

func TestEntry_Valid(t *testing.T) {
	entry, err := NewEntry(testEvent("beckn_search", map[string]any{"schedule_count": 3}))
	require.NoError(t, err)
	assert.True(t, entry.Valid())

	entry.Data["schedule_count"] = 99
	assert.False(t, entry.Valid(), "tampered payload must fail validation")
}

func TestMemoryStore_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	e1, _ := NewEntry(testEvent("beckn_search", nil).WithTransaction("txn-1"))
	e2, _ := NewEntry(testEvent("beckn_confirm", nil).WithTransaction("txn-1").WithJob("JOB-001"))
	e3, _ := NewEntry(testEvent(core.EventJobCompleted, nil).WithJob("JOB-002"))
	for _, e := range []Entry{e1, e2, e3} {
		require.NoError(t, store.Append(ctx, e))
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byTxn, err := store.ByTransaction(ctx, "txn-1")
	require.NoError(t, err)
	assert.Len(t, byTxn, 2)

	byJob, err := store.ByJob(ctx, "JOB-002")
	require.NoError(t, err)
	require.Len(t, byJob, 1)
	assert.Equal(t, core.EventJobCompleted, byJob[0].Type)
}

func TestTrail_RecordAndVerify(t *testing.T) {
	ctx := context.Background()
	trail := NewTrail(NewMemoryStore(), logging.NoOpLogger{})

	require.NoError(t, trail.Record(ctx, testEvent(core.EventCycleStarted, nil)))
	require.NoError(t, trail.Record(ctx, testEvent("beckn_search", map[string]any{"schedule_count": 1})))

	n, err := trail.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTrail_VerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	trail := NewTrail(store, logging.NoOpLogger{})

	require.NoError(t, trail.Record(ctx, testEvent("beckn_confirm", map[string]any{"order_id": "order-1"})))

	// Tamper with the stored entry directly.
	store.entries[0].Data["order_id"] = "order-666"

	_, err := trail.Verify(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity check failed")
}

func TestTrail_Drain(t *testing.T) {
	ctx := context.Background()
	trail := NewTrail(NewMemoryStore(), logging.NoOpLogger{})

	events := make(chan core.Event, 3)
	events <- testEvent(core.EventCycleStarted, nil)
	events <- testEvent(core.EventWorkloads, map[string]any{"count": 2})
	close(events)

	require.NoError(t, trail.Drain(ctx, events))
	n, err := trail.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTrail_Export(t *testing.T) {
	ctx := context.Background()
	trail := NewTrail(NewMemoryStore(), logging.NoOpLogger{})
	require.NoError(t, trail.Record(ctx, testEvent("beckn_rating", map[string]any{"order_id": "order-1"})))

	var buf bytes.Buffer
	require.NoError(t, trail.Export(ctx, &buf))

	var decoded []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "beckn_rating", decoded[0].Type)
	assert.True(t, decoded[0].Valid(), "exported entries must verify after a JSON round trip")
}

func TestTrail_Settlement(t *testing.T) {
	ctx := context.Background()
	trail := NewTrail(NewMemoryStore(), logging.NoOpLogger{})

	savings := core.Savings{CostSavings: 30.456, CarbonSavingsKg: 50, P415Revenue: 10}
	require.NoError(t, trail.Record(ctx, testEvent(core.EventScheduled, map[string]any{"savings": savings})))
	require.NoError(t, trail.Record(ctx, testEvent(core.EventJobCompleted, nil)))
	require.NoError(t, trail.Record(ctx, testEvent(core.EventJobCompleted, nil)))

	report, err := trail.Settlement(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.JobsCompleted)
	assert.Equal(t, 30.46, report.Financial.TotalCostSavingsGBP)
	assert.Equal(t, 10.0, report.Financial.TotalP415RevenueGBP)
	assert.Equal(t, 40.46, report.Financial.NetBenefitGBP)
	assert.Equal(t, 50.0, report.Environmental.TotalCarbonSavingsKg)
	assert.Equal(t, 2.0, report.Environmental.EquivalentTreesPlanted)
	assert.Equal(t, 3, report.TrailEntries)
}
