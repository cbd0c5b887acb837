// Package core contains the domain model and execution contracts shared by
// every voltmesh component: compute workloads, energy signals, scheduling
// decisions, the Agent interface, the per-run execution context and the
// Event type consumed by the audit trail.
//
// Higher level packages (workload, grid, decision, beckn, engine) build on
// these types; core itself depends only on logging and uuid generation.
package core
