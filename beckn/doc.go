// Package beckn implements the BAP ("Beckn Application Platform") side of
// the Beckn commerce protocol for energy window procurement. The Client
// drives the seven-call journey (search, select, init, confirm, status,
// update, rating) against a BPP sandbox, correlating every call of one
// journey under a single transaction identifier.
//
// When sandbox fallback is enabled (the default), transport failures and
// non-2xx replies are answered with canned provider responses so demo
// journeys complete without a reachable sandbox.
package beckn
