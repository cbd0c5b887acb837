package core

import "errors"

// Sentinel errors shared across packages. Agents return these (wrapped) so
// callers can distinguish "nothing to do" outcomes from real failures.
var (
	// ErrNoFlexibleWorkloads indicates the workload queue held no job that
	// could still be shifted before its deadline.
	ErrNoFlexibleWorkloads = errors.New("no flexible workloads available")

	// ErrNoFeasibleSchedule indicates the optimizer found no valid window
	// for any workload in the cycle.
	ErrNoFeasibleSchedule = errors.New("no feasible schedule found")

	// ErrWorkloadNotFound indicates a job identifier matched no queued workload.
	ErrWorkloadNotFound = errors.New("workload not found")
)
