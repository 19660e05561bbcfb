package store

import "errors"

var (
	// ErrUnknownKind is returned when an account names a kind the registry
	// has no spec for.
	ErrUnknownKind = errors.New("unknown account kind")

	// ErrNotBrokerage is returned when a position operation targets an
	// account that cannot own positions.
	ErrNotBrokerage = errors.New("account is not a brokerage account")
)
