// Package models defines the account, position and snapshot types persisted
// by the vault, together with the per-kind validation and current-value
// dispatch registry.
package models

import (
	"time"
)

// Kind classifies an account. The set is closed; new kinds are added by
// registering a KindSpec (see Registry).
type Kind string

const (
	KindTermDeposit   Kind = "TERM_DEPOSIT"
	KindSavings       Kind = "SAVINGS"
	KindRetirement    Kind = "RETIREMENT"
	KindBrokerage     Kind = "BROKERAGE"
	KindInflationBond Kind = "INFLATION_BOND"
	KindHealthSavings Kind = "HEALTH_SAVINGS"
)

// balanceTolerance absorbs sub-cent floating point noise in balance
// consistency checks.
const balanceTolerance = 0.01

// Account is a persisted financial account. ID, Name, Institution, Kind, the
// timestamps and the Demo flag are stored in plaintext index columns; every
// Payload field is encrypted at rest. Plaintext fields never carry financial
// values.
type Account struct {
	ID            string
	Name          string
	Institution   string
	Kind          Kind
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SchemaVersion int
	Demo          bool

	// Payload holds the kind-specific fields (balances, rates, dates) as a
	// JSON-like map. Numeric values decode as float64, dates as ISO strings.
	Payload map[string]any
}

// payloadNumber reads a numeric payload field. JSON decoding produces
// float64, but freshly built payloads may carry int values.
func payloadNumber(p map[string]any, field string) (float64, bool) {
	v, ok := p[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// payloadDate reads an ISO-8601 date (or RFC 3339 timestamp) payload field.
func payloadDate(p map[string]any, field string) (time.Time, bool) {
	v, ok := p[field]
	if !ok {
		return time.Time{}, false
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, true
	}
	return time.Time{}, false
}

func payloadString(p map[string]any, field string) (string, bool) {
	v, ok := p[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// requireNonNegative validates that field, if present, is numeric and ≥ 0.
// Missing fields default to zero and pass.
func requireNonNegative(p map[string]any, field string) error {
	if _, ok := p[field]; !ok {
		return nil
	}
	n, ok := payloadNumber(p, field)
	if !ok {
		return invalid(field, p[field], "must be a number")
	}
	if n < 0 {
		return invalid(field, n, "cannot be negative")
	}
	return nil
}

func requirePositive(p map[string]any, field string) error {
	n, ok := payloadNumber(p, field)
	if !ok {
		return invalid(field, p[field], "must be a number")
	}
	if n <= 0 {
		return invalid(field, n, "must be positive")
	}
	return nil
}

// HealthSavingsRemainingCapacity returns how much more can be contributed in
// the current year, never negative.
func HealthSavingsRemainingCapacity(payload map[string]any) float64 {
	limit, _ := payloadNumber(payload, "annual_contribution_limit")
	contributed, _ := payloadNumber(payload, "current_year_contributions")
	if remaining := limit - contributed; remaining > 0 {
		return remaining
	}
	return 0
}

// HealthSavingsContributionProgress returns year-to-date contributions as a
// percentage of the annual limit, 0 when no limit is set.
func HealthSavingsContributionProgress(payload map[string]any) float64 {
	limit, _ := payloadNumber(payload, "annual_contribution_limit")
	if limit == 0 {
		return 0
	}
	contributed, _ := payloadNumber(payload, "current_year_contributions")
	return contributed / limit * 100
}
