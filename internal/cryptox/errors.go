package cryptox

import "errors"

var (
	// ErrNotInitialized is returned when an encrypt/decrypt call is made
	// without a usable key (missing, wrong size, or session expired).
	ErrNotInitialized = errors.New("encryption key not initialized")

	// ErrAuthenticationFailed is returned when a ciphertext fails tag
	// verification. Tampered data and a wrong key are deliberately
	// indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrWeakInput is returned by key derivation for an empty password.
	ErrWeakInput = errors.New("weak input")
)
