// Package audit records the full trace of an optimization cycle: every
// agent event and Beckn protocol call, hash-signed so tampering with a
// stored trail is detectable. It offers per-job and per-transaction queries,
// JSON export, integrity verification and a settlement report aggregating
// cost savings, carbon savings and P415 revenue.
//
// Entries are kept in a Store; MemoryStore backs tests and single-shot runs,
// MySQLStore persists trails across processes.
package audit
