// Package store is the encrypted record store: account, position and
// settings operations over SQLite, with every non-index field sealed by the
// session key before it touches a row.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/migrations"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/repositories/accounts"
	"github.com/skuznetsov/finvault/internal/repositories/positions"
	"github.com/skuznetsov/finvault/internal/repositories/settings"
	"github.com/skuznetsov/finvault/internal/repositories/snapshots"
)

// Reserved settings rows written before the vault is unlocked. They hold the
// key derivation salt and the password verifier in the clear and are never
// exported or surfaced through SetSetting/Setting.
const (
	SettingKeySalt     = "kdf_salt"
	SettingKeyVerifier = "auth_verifier"
)

// Appender is the ledger hook fed by price application. It is satisfied by
// ledger.Ledger.
type Appender interface {
	AppendIfChanged(ctx context.Context, accountID string, value float64,
		kind models.ChangeKind, metadata map[string]any) (string, error)
}

// Store owns the database handle, the unlocked session and the kind
// registry. All methods that read or write payloads fail with
// cryptox.ErrNotInitialized once the session expires.
type Store struct {
	db       *sql.DB
	session  *cryptox.Session
	registry *models.Registry
	log      logging.Logger

	accounts  accounts.Repository
	positions positions.Repository
	snapshots snapshots.Repository
	settings  settings.Repository

	ledger Appender
	now    func() time.Time
}

// New wires a Store over an already-migrated database.
func New(db *sql.DB, session *cryptox.Session, registry *models.Registry, log logging.Logger) *Store {
	return &Store{
		db:        db,
		session:   session,
		registry:  registry,
		log:       log,
		accounts:  accounts.NewSQLiteRepository(db),
		positions: positions.NewSQLiteRepository(db),
		snapshots: snapshots.NewSQLiteRepository(db),
		settings:  settings.NewSQLiteRepository(db),
		now:       time.Now,
	}
}

// OpenDB opens (creating if needed) the vault database at dsn, enables
// foreign keys and applies the embedded migrations.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open is OpenDB plus Store construction, for callers that already hold an
// unlocked session.
func Open(ctx context.Context, dsn string, session *cryptox.Session,
	registry *models.Registry, log logging.Logger) (*Store, error) {

	db, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db, session, registry, log), nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SetLedger installs the snapshot hook fed by ApplyPrices.
func (s *Store) SetLedger(l Appender) {
	s.ledger = l
}

// DB exposes the underlying handle so the ledger and backup codec can share
// it.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}
