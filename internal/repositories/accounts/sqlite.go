package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/skuznetsov/finvault/internal/common"
	"github.com/skuznetsov/finvault/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *Record) error {
	query := `INSERT INTO accounts (id, name, institution, kind, payload, created_at, updated_at, schema_version, demo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Institution, rec.Kind, rec.Payload,
		rec.CreatedAt, rec.UpdatedAt, rec.SchemaVersion, rec.Demo)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *Record) error {
	query := `UPDATE accounts
		SET name = ?, institution = ?, kind = ?, payload = ?, updated_at = ?, schema_version = ?, demo = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		rec.Name, rec.Institution, rec.Kind, rec.Payload,
		rec.UpdatedAt, rec.SchemaVersion, rec.Demo, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
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

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := `SELECT id, name, institution, kind, payload, created_at, updated_at, schema_version, demo
		FROM accounts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	rec := &Record{}
	err := row.Scan(&rec.ID, &rec.Name, &rec.Institution, &rec.Kind, &rec.Payload,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.SchemaVersion, &rec.Demo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]Record, error) {
	query, args := buildListQuery(
		`SELECT id, name, institution, kind, payload, created_at, updated_at, schema_version, demo FROM accounts`, f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Institution, &rec.Kind, &rec.Payload,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.SchemaVersion, &rec.Demo); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListIDs(ctx context.Context, f Filter) ([]string, error) {
	query, args := buildListQuery(`SELECT id FROM accounts`, f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select account ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
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

func buildListQuery(base string, f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, f.Name)
	}
	if f.Demo != nil {
		conds = append(conds, "demo = ?")
		args = append(args, *f.Demo)
	}

	if len(conds) > 0 {
		base += " WHERE " + strings.Join(conds, " AND ")
	}
	return base + " ORDER BY name", args
}
