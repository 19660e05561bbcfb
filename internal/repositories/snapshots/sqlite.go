package snapshots

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
	query := `INSERT INTO snapshots (id, account_id, timestamp, value, change_kind, metadata)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.AccountID, rec.Timestamp, rec.Value, rec.ChangeKind, rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListByAccount returns snapshots newest-first. Timestamp ties are broken by
// insertion order (rowid), so the later append wins the newer slot.
func (r *SQLiteRepository) ListByAccount(ctx context.Context, accountID string, f QueryFilter) ([]Record, error) {
	query := `SELECT id, account_id, timestamp, value, change_kind, metadata
		FROM snapshots WHERE account_id = ?`
	args := []any{accountID}

	if f.Start != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *f.Start)
	}
	if f.End != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *f.End)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshots: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Timestamp,
			&rec.Value, &rec.ChangeKind, &rec.Metadata); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) LatestByAccount(ctx context.Context, accountID string) (*Record, error) {
	query := `SELECT id, account_id, timestamp, value, change_kind, metadata
		FROM snapshots WHERE account_id = ?
		ORDER BY timestamp DESC, rowid DESC LIMIT 1`
	rec := &Record{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&rec.ID, &rec.AccountID, &rec.Timestamp, &rec.Value, &rec.ChangeKind, &rec.Metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM snapshots WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, accountID string, cutoff int64, keepID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE account_id = ? AND timestamp < ? AND id != ?`,
		accountID, cutoff, keepID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge snapshots: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return res.RowsAffected()
}
