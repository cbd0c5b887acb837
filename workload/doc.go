// Package workload manages the compute side of the system: the queue of
// deferrable jobs, the flexibility filter that decides which of them can be
// shifted before their SLA deadline, and the site capacity envelope.
package workload
