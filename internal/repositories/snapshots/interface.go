// Package snapshots persists the append-only value history of accounts.
// Rows are immutable once written: the only mutations are append and bulk
// delete by age or by owning account.
package snapshots

import "context"

// Record is the persisted shape of a snapshot. Timestamp is Unix seconds;
// Metadata is ciphertext or nil.
type Record struct {
	ID         string
	AccountID  string
	Timestamp  int64
	Value      float64
	ChangeKind string
	Metadata   []byte
}

// QueryFilter bounds a history query. Nil bounds mean unbounded; Limit 0
// means no limit.
type QueryFilter struct {
	Start *int64
	End   *int64
	Limit int
}

type Repository interface {
	// Insert appends a snapshot row.
	Insert(ctx context.Context, r *Record) error

	// ListByAccount returns an account's snapshots newest-first, bounded
	// by the filter.
	ListByAccount(ctx context.Context, accountID string, f QueryFilter) ([]Record, error)

	// LatestByAccount returns the newest snapshot or common.ErrNotFound.
	LatestByAccount(ctx context.Context, accountID string) (*Record, error)

	// Exists reports whether a snapshot id is already present.
	Exists(ctx context.Context, id string) (bool, error)

	// DeleteOlderThan removes snapshots with timestamp strictly before
	// cutoff, sparing keepID, and returns the number deleted.
	DeleteOlderThan(ctx context.Context, accountID string, cutoff int64, keepID string) (int64, error)

	// DeleteByAccount removes every snapshot of an account and returns the
	// number deleted.
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
}
