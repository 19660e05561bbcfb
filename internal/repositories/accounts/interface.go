// Package accounts persists account records: plaintext index columns plus an
// encrypted payload blob. Encryption and validation live one layer up, in
// the store; this package only moves rows.
package accounts

import "context"

// Record is the persisted shape of an account. Payload is ciphertext; the
// remaining columns are the plaintext index fields and never carry financial
// values.
type Record struct {
	ID            string
	Name          string
	Institution   string
	Kind          string
	Payload       []byte
	CreatedAt     int64
	UpdatedAt     int64
	SchemaVersion int
	Demo          bool
}

// Filter is a simple equality predicate over the plaintext index columns.
// Zero values mean "any".
type Filter struct {
	Kind string
	Name string
	Demo *bool
}

// Repository describes the account row operations backed by the local SQLite
// store.
type Repository interface {
	// Insert adds a new record. The id must be unique.
	Insert(ctx context.Context, r *Record) error

	// Update replaces the mutable columns of an existing record. Returns
	// common.ErrNotFound if the id does not exist.
	Update(ctx context.Context, r *Record) error

	// GetByID returns a record or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*Record, error)

	// List returns records matching the filter, ordered by name.
	List(ctx context.Context, f Filter) ([]Record, error)

	// Delete removes a record. Returns common.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ListIDs returns the ids matching the filter.
	ListIDs(ctx context.Context, f Filter) ([]string, error)
}
