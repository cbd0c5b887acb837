package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voltmesh/voltmesh/core"
)

// Entry is one signed audit record: the original event plus the hex SHA-256
// digest of its canonical encoding. The signature is a content hash, so
// Verify detects tampering with a stored trail, not forgery by a writer.
type Entry struct {
	core.Event
	Signature string `json:"signature"`
}

// signedPayload is the exact byte layout the signature covers. Field order
// is fixed; Data is canonicalized before marshaling so in-memory and
// persisted representations hash identically.
type signedPayload struct {
	Timestamp     string `json:"timestamp"`
	EventType     string `json:"event_type"`
	JobID         string `json:"job_id"`
	TransactionID string `json:"transaction_id"`
	Data          any    `json:"data"`
}

// Sign computes the entry signature for an event.
func Sign(ev core.Event) (string, error) {
	data, err := canonicalize(ev.Data)
	if err != nil {
		return "", fmt.Errorf("canonicalize event data: %w", err)
	}
	payload, err := json.Marshal(signedPayload{
		Timestamp:     ev.Timestamp.UTC().Format(time.RFC3339Nano),
		EventType:     ev.Type,
		JobID:         ev.JobID,
		TransactionID: ev.TransactionID,
		Data:          data,
	})
	if err != nil {
		return "", fmt.Errorf("encode signed payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// NewEntry signs an event and wraps it as an audit entry.
func NewEntry(ev core.Event) (Entry, error) {
	sig, err := Sign(ev)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Event: ev, Signature: sig}, nil
}

// Valid recomputes the signature and compares it to the stored one.
func (e Entry) Valid() bool {
	sig, err := Sign(e.Event)
	return err == nil && sig == e.Signature
}

// canonicalize round-trips a value through JSON so that structs, typed maps
// and decoded map[string]any all reduce to the same shape (objects with
// sorted keys, float64 numbers) before hashing.
func canonicalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
