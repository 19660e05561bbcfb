package backup

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/ledger"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/store"
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

type vault struct {
	store  *store.Store
	ledger *ledger.Ledger
	codec  *Codec
}

func newTestSession(t *testing.T) *cryptox.Session {
	t.Helper()
	dk, err := cryptox.DeriveKey([]byte("test-master-password"), nil, cryptox.MinIterations)
	require.NoError(t, err)
	return cryptox.NewSession(dk, 0)
}

func newTestVault(t *testing.T, sess *cryptox.Session) *vault {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)

	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	st := store.New(db, sess, models.DefaultRegistry(), log)
	led := ledger.New(db, sess, log)
	return &vault{store: st, ledger: led, codec: NewCodec(st, led, sess, log)}
}

func seedVault(t *testing.T, v *vault) (savingsID, brokerID string) {
	t.Helper()
	ctx := context.Background()

	savingsID, err := v.store.CreateAccount(ctx, store.NewAccount{
		Name: "Emergency fund", Institution: "First Bank", Kind: models.KindSavings,
		Payload: map[string]any{"current_balance": 5000.0, "interest_rate": 1.5},
	})
	require.NoError(t, err)

	brokerID, err = v.store.CreateAccount(ctx, store.NewAccount{
		Name: "Brokerage", Kind: models.KindBrokerage,
		Payload: map[string]any{"broker_name": "IBKR", "cash_balance": 1000.0},
	})
	require.NoError(t, err)

	_, err = v.store.AddPosition(ctx, brokerID, "AAPL", 10, 150,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	past := time.Now().AddDate(0, -1, 0)
	_, err = v.ledger.AppendAt(ctx, savingsID, past, 4800, models.ChangeInitial,
		map[string]any{"note": "opening"})
	require.NoError(t, err)
	_, err = v.ledger.AppendAt(ctx, savingsID, past.AddDate(0, 0, 7), 5000, models.ChangeManual, nil)
	require.NoError(t, err)

	require.NoError(t, v.store.SetSetting(ctx, "currency", []byte("EUR")))
	return savingsID, brokerID
}

func TestExportSealOpenRestore_RoundTrip(t *testing.T) {
	sess := newTestSession(t)
	src := newTestVault(t, sess)
	dst := newTestVault(t, sess)
	ctx := context.Background()

	savingsID, brokerID := seedVault(t, src)

	payload, err := src.codec.Export(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, payload.Manifest.AccountCount)
	assert.Equal(t, 1, payload.Manifest.PositionCount)
	assert.Equal(t, 2, payload.Manifest.SnapshotCount)
	assert.Equal(t, 1, payload.Manifest.SettingCount)
	assert.Equal(t, CurrentFormatVersion, payload.Manifest.FormatVersion)
	assert.NotEmpty(t, payload.Manifest.BackupID)

	key, err := sess.Key()
	require.NoError(t, err)
	sealed, err := Seal(payload, key)
	require.NoError(t, err)

	opened, err := Open(sealed, key)
	require.NoError(t, err)

	report, err := dst.codec.Restore(ctx, opened, false)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 6, report.Imported)
	assert.Zero(t, report.Skipped)

	// Same ids, same decrypted values.
	a, err := dst.store.Account(ctx, savingsID)
	require.NoError(t, err)
	assert.Equal(t, "Emergency fund", a.Name)
	assert.EqualValues(t, 5000, a.Payload["current_balance"])

	pos, err := dst.store.Positions(ctx, brokerID)
	require.NoError(t, err)
	require.Len(t, pos, 1)
	assert.Equal(t, "AAPL", pos[0].Symbol)

	snaps, err := dst.ledger.Query(ctx, savingsID, ledger.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, map[string]any{"note": "opening"}, snaps[1].Metadata)

	setting, err := dst.store.Setting(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, []byte("EUR"), setting)
}

func TestExport_WithoutSnapshots(t *testing.T) {
	sess := newTestSession(t)
	v := newTestVault(t, sess)
	seedVault(t, v)

	payload, err := v.codec.Export(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, payload.Snapshots)
	assert.Zero(t, payload.Manifest.SnapshotCount)
	assert.Equal(t, 2, payload.Manifest.AccountCount)
}

func TestOpen_WrongKeyOrTampered(t *testing.T) {
	sess := newTestSession(t)
	v := newTestVault(t, sess)
	seedVault(t, v)

	payload, err := v.codec.Export(context.Background(), false)
	require.NoError(t, err)
	key, err := sess.Key()
	require.NoError(t, err)
	sealed, err := Seal(payload, key)
	require.NoError(t, err)

	other, err := cryptox.DeriveKey([]byte("another password"), nil, cryptox.MinIterations)
	require.NoError(t, err)
	_, err = Open(sealed, other.Key)
	assert.ErrorIs(t, err, ErrCorrupt)

	sealed[len(sealed)/2] ^= 0xff
	_, err = Open(sealed, key)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpen_UnsupportedVersion(t *testing.T) {
	sess := newTestSession(t)
	key, err := sess.Key()
	require.NoError(t, err)

	payload := &Payload{Manifest: Manifest{FormatVersion: CurrentFormatVersion + 1}}
	sealed, err := Seal(payload, key)
	require.NoError(t, err)

	_, err = Open(sealed, key)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestRestore_SkipsExisting(t *testing.T) {
	sess := newTestSession(t)
	v := newTestVault(t, sess)
	ctx := context.Background()
	seedVault(t, v)

	payload, err := v.codec.Export(ctx, true)
	require.NoError(t, err)

	// Importing a vault back into itself touches nothing.
	report, err := v.codec.Restore(ctx, payload, false)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Zero(t, report.Imported)
	assert.Equal(t, 6, report.Skipped)
}

func TestRestore_Overwrite(t *testing.T) {
	sess := newTestSession(t)
	v := newTestVault(t, sess)
	ctx := context.Background()
	savingsID, _ := seedVault(t, v)

	payload, err := v.codec.Export(ctx, false)
	require.NoError(t, err)

	_, err = v.store.UpdateAccount(ctx, savingsID, store.AccountUpdate{
		Payload: map[string]any{"current_balance": 9999.0},
	})
	require.NoError(t, err)

	report, err := v.codec.Restore(ctx, payload, true)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	a, err := v.store.Account(ctx, savingsID)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, a.Payload["current_balance"])
}

func TestRestore_PartialFailure(t *testing.T) {
	sess := newTestSession(t)
	v := newTestVault(t, sess)
	ctx := context.Background()

	payload := &Payload{
		Manifest: Manifest{FormatVersion: CurrentFormatVersion, AccountCount: 2},
		Accounts: []AccountRecord{
			{
				ID: "good", Name: "Good", Kind: string(models.KindSavings),
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
				Payload: map[string]any{"current_balance": 100.0, "interest_rate": 1.0},
			},
			{
				ID: "bad", Name: "Bad", Kind: string(models.KindSavings),
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
				Payload: map[string]any{"current_balance": -1.0, "interest_rate": 1.0},
			},
		},
	}

	report, err := v.codec.Restore(ctx, payload, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "bad")

	_, err = v.store.Account(ctx, "good")
	assert.NoError(t, err)
}

func TestRestore_StructuralMismatch(t *testing.T) {
	sess := newTestSession(t)
	v := newTestVault(t, sess)

	payload := &Payload{
		Manifest: Manifest{FormatVersion: CurrentFormatVersion, AccountCount: 5},
	}
	_, err := v.codec.Restore(context.Background(), payload, false)
	assert.ErrorIs(t, err, ErrStructuralMismatch)
}
