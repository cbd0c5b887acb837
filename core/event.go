package core

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted over the course of an optimization cycle. The Beckn
// journey additionally emits one "beckn_<action>" event per protocol call.
const (
	EventCycleStarted   = "cycle_started"
	EventCycleCompleted = "cycle_completed"
	EventWorkloads      = "workloads_gathered"
	EventEnergySignals  = "energy_signals_gathered"
	EventScheduled      = "schedule_optimized"
	EventJobCompleted   = "job_completed"
)

// Event is the unit of communication between agents, the engine and the
// audit trail. After emission it must be treated as immutable. It captures:
//   - Correlation (RunID, ID, Author)
//   - Classification (Type, optional JobID / Beckn TransactionID)
//   - An arbitrary structured payload (Data)
//   - High precision UTC timestamp
//
// The audit trail signs the timestamp, type, identifiers and payload; see
// package audit.
type Event struct {
	ID            string         `json:"id"`
	RunID         string         `json:"run_id"`
	Author        string         `json:"author"`
	Type          string         `json:"event_type"`
	JobID         string         `json:"job_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	Data          map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event authored by 'author' bound to a run.
// Data may be nil for marker events.
func NewEvent(runID, author, eventType string, data map[string]any) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithJob returns a copy of the event tagged with a workload identifier.
func (e Event) WithJob(jobID string) Event {
	e.JobID = jobID
	return e
}

// WithTransaction returns a copy of the event tagged with a Beckn transaction identifier.
func (e Event) WithTransaction(txnID string) Event {
	e.TransactionID = txnID
	return e
}

// NewID generates a new unique identifier.
//
// This function creates a UUID-based unique identifier used for events,
// runs and Beckn context correlation throughout the system.
func NewID() string { return uuid.NewString() }

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
