package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE accounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  institution TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  schema_version INTEGER NOT NULL,
  demo INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE positions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  symbol TEXT NOT NULL,
  shares REAL NOT NULL,
  purchase_price REAL NOT NULL,
  purchase_date INTEGER NOT NULL,
  current_price REAL,
  price_updated_at INTEGER
);
CREATE TABLE snapshots (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  value REAL NOT NULL,
  change_kind TEXT NOT NULL,
  metadata BLOB
);
CREATE TABLE settings (key TEXT PRIMARY KEY, value BLOB NOT NULL);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func newTestSession(t *testing.T) *cryptox.Session {
	t.Helper()
	dk, err := cryptox.DeriveKey([]byte("test-master-password"), nil, cryptox.MinIterations)
	require.NoError(t, err)
	return cryptox.NewSession(dk, 0)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	s := New(newTestDB(t), newTestSession(t), models.DefaultRegistry(), log)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func savingsPayload(balance float64) map[string]any {
	return map[string]any{"current_balance": balance, "interest_rate": 1.5}
}

func brokeragePayload(cash float64) map[string]any {
	return map[string]any{"broker_name": "IBKR", "cash_balance": cash}
}

func mustCreate(t *testing.T, s *Store, na NewAccount) string {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), na)
	require.NoError(t, err)
	return id
}
