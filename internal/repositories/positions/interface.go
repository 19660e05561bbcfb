// Package positions persists stock positions owned by brokerage accounts.
// Symbol and the numeric columns are plaintext: they are needed for joins
// and price application, and a position on its own names no account holder.
package positions

import "context"

// Record is the persisted shape of a stock position. Timestamps are Unix
// seconds; CurrentPrice and PriceUpdatedAt are nil until the first quote is
// applied.
type Record struct {
	ID             string
	AccountID      string
	Symbol         string
	Shares         float64
	PurchasePrice  float64
	PurchaseDate   int64
	CurrentPrice   *float64
	PriceUpdatedAt *int64
}

type Repository interface {
	// Insert adds a new position row.
	Insert(ctx context.Context, r *Record) error

	// GetByID returns a position or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*Record, error)

	// ListByAccount returns an account's positions ordered by symbol.
	ListByAccount(ctx context.Context, accountID string) ([]Record, error)

	// UpdatePrice sets the current price and its freshness timestamp.
	// Returns common.ErrNotFound if the id does not exist.
	UpdatePrice(ctx context.Context, id string, price float64, updatedAt int64) error

	// Delete removes a position. Returns common.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// DeleteByAccount removes every position owned by an account and
	// returns the number deleted.
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
}
