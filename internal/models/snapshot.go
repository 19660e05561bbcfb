package models

import "time"

// ChangeKind records what triggered a snapshot.
type ChangeKind string

const (
	ChangeInitial     ChangeKind = "INITIAL"
	ChangeManual      ChangeKind = "MANUAL"
	ChangePriceUpdate ChangeKind = "PRICE_UPDATE"
)

func (c ChangeKind) Valid() bool {
	switch c {
	case ChangeInitial, ChangeManual, ChangePriceUpdate:
		return true
	}
	return false
}

// Snapshot is an immutable point-in-time observation of an account's value.
// Snapshots are only ever appended or bulk-deleted by age; there is no
// update operation. Metadata is encrypted at rest.
type Snapshot struct {
	ID         string
	AccountID  string
	Timestamp  time.Time
	Value      float64
	ChangeKind ChangeKind
	Metadata   map[string]any
}

// Validate checks snapshot invariants against the given wall clock.
func (s *Snapshot) Validate(now time.Time) error {
	if s.AccountID == "" {
		return invalid("account_id", s.AccountID, "cannot be empty")
	}
	if s.Timestamp.IsZero() || s.Timestamp.After(now) {
		return invalid("timestamp", s.Timestamp, "cannot be in the future")
	}
	if s.Value < 0 {
		return invalid("value", s.Value, "cannot be negative")
	}
	if !s.ChangeKind.Valid() {
		return invalid("change_kind", string(s.ChangeKind), "unknown change kind")
	}
	return nil
}
