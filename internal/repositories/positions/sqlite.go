package positions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skuznetsov/finvault/internal/common"
	"github.com/skuznetsov/finvault/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *Record) error {
	query := `INSERT INTO positions (id, account_id, symbol, shares, purchase_price, purchase_date, current_price, price_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.AccountID, rec.Symbol, rec.Shares,
		rec.PurchasePrice, rec.PurchaseDate, rec.CurrentPrice, rec.PriceUpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := `SELECT id, account_id, symbol, shares, purchase_price, purchase_date, current_price, price_updated_at
		FROM positions WHERE id = ?`
	rec := &Record{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.AccountID, &rec.Symbol, &rec.Shares,
		&rec.PurchasePrice, &rec.PurchaseDate, &rec.CurrentPrice, &rec.PriceUpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListByAccount(ctx context.Context, accountID string) ([]Record, error) {
	query := `SELECT id, account_id, symbol, shares, purchase_price, purchase_date, current_price, price_updated_at
		FROM positions WHERE account_id = ? ORDER BY symbol`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to select positions: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Symbol, &rec.Shares,
			&rec.PurchasePrice, &rec.PurchaseDate, &rec.CurrentPrice, &rec.PriceUpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) UpdatePrice(ctx context.Context, id string, price float64, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE positions SET current_price = ?, price_updated_at = ? WHERE id = ?`,
		price, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update position price: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	return res.RowsAffected()
}
