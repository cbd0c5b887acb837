// Package engine coordinates a full optimization cycle: gathering flexible
// workloads, fetching grid signals, optimizing the schedule, negotiating an
// energy window over Beckn, and feeding every emitted event into the audit
// trail. A cycle is the unit of work exposed by the CLI and the HTTP server.
package engine
