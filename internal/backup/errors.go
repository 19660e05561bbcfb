package backup

import "errors"

var (
	// ErrCorrupt is returned when a backup cannot be decrypted or decoded.
	// Wrong key and tampered file are indistinguishable on purpose.
	ErrCorrupt = errors.New("backup is corrupt or the key is wrong")

	// ErrUnsupportedVersion is returned when a backup was written by a
	// newer format than this build understands.
	ErrUnsupportedVersion = errors.New("backup format version is not supported")

	// ErrStructuralMismatch is returned by Restore when the payload failed
	// structural validation.
	ErrStructuralMismatch = errors.New("backup payload failed validation")
)
