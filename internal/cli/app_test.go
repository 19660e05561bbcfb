package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuznetsov/finvault/internal/config"
	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/store"
)

// stubPassword points readPassword at a canned sequence of entries.
func stubPassword(t *testing.T, entries ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	i := 0
	readPassword = func() ([]byte, error) {
		if i >= len(entries) {
			t.Fatal("unexpected password prompt")
		}
		pw := []byte(entries[i])
		i++
		return pw, nil
	}
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "vault.db")
	cfg.SessionTTL = time.Minute

	out := &bytes.Buffer{}
	return &App{
		cfg:    cfg,
		log:    logging.NewTextLogger(io.Discard, slog.LevelError),
		reader: bufio.NewReader(strings.NewReader("")),
		out:    out,
	}, out
}

func TestRun_Init(t *testing.T) {
	app, out := newTestApp(t)
	stubPassword(t, "master-pw", "master-pw")

	require.NoError(t, app.Run(context.Background(), []string{"init"}))
	assert.Contains(t, out.String(), "Vault initialized")

	// A second init must refuse.
	stubPassword(t)
	err := app.Run(context.Background(), []string{"init"})
	assert.ErrorContains(t, err, "already initialized")
}

func TestRun_Init_PasswordMismatch(t *testing.T) {
	app, _ := newTestApp(t)
	stubPassword(t, "one", "two")

	err := app.Run(context.Background(), []string{"init"})
	assert.ErrorContains(t, err, "do not match")
}

func TestRun_List_WrongPassword(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	stubPassword(t, "master-pw", "master-pw")
	require.NoError(t, app.Run(ctx, []string{"init"}))

	stubPassword(t, "not-the-password")
	err := app.Run(ctx, []string{"list"})
	assert.ErrorIs(t, err, cryptox.ErrAuthenticationFailed)
}

func TestRun_List_NotInitialized(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run(context.Background(), []string{"list"})
	assert.ErrorContains(t, err, "not initialized")
}

func TestRun_ListShowsAccounts(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()

	stubPassword(t, "master-pw", "master-pw")
	require.NoError(t, app.Run(ctx, []string{"init"}))

	stubPassword(t, "master-pw")
	v, err := app.openVault(ctx)
	require.NoError(t, err)
	_, err = v.store.CreateAccount(ctx, store.NewAccount{
		Name: "Emergency fund", Institution: "First Bank", Kind: models.KindSavings,
		Payload: map[string]any{"current_balance": 5000.0, "interest_rate": 1.5},
	})
	require.NoError(t, err)
	v.close()

	stubPassword(t, "master-pw")
	require.NoError(t, app.Run(ctx, []string{"list"}))
	assert.Contains(t, out.String(), "Emergency fund")
	assert.Contains(t, out.String(), "5000.00")
}

func TestRun_ExportImportRoundTrip(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	backupFile := filepath.Join(t.TempDir(), "vault.backup")

	stubPassword(t, "master-pw", "master-pw")
	require.NoError(t, app.Run(ctx, []string{"init"}))

	stubPassword(t, "master-pw")
	v, err := app.openVault(ctx)
	require.NoError(t, err)
	id, err := v.store.CreateAccount(ctx, store.NewAccount{
		Name: "Savings", Kind: models.KindSavings,
		Payload: map[string]any{"current_balance": 100.0, "interest_rate": 1.0},
	})
	require.NoError(t, err)
	v.close()

	stubPassword(t, "master-pw")
	require.NoError(t, app.Run(ctx, []string{"export", backupFile}))
	assert.Contains(t, out.String(), "Exported 1 accounts")

	// Lose the account, then bring it back from the backup.
	stubPassword(t, "master-pw")
	v, err = app.openVault(ctx)
	require.NoError(t, err)
	require.NoError(t, v.store.DeleteAccount(ctx, id))
	v.close()

	stubPassword(t, "master-pw")
	require.NoError(t, app.Run(ctx, []string{"import", backupFile}))
	assert.Contains(t, out.String(), "Imported 1 records")

	stubPassword(t, "master-pw")
	v, err = app.openVault(ctx)
	require.NoError(t, err)
	defer v.close()
	a, err := v.store.Account(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Savings", a.Name)
}

func TestRun_ImportOverwriteCancelled(t *testing.T) {
	app, out := newTestApp(t)
	app.reader = bufio.NewReader(strings.NewReader("no\n"))

	err := app.Run(context.Background(), []string{"import", "whatever.bin", "-overwrite"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Import cancelled")
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run(context.Background(), []string{"frobnicate"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	app, out := newTestApp(t)

	require.NoError(t, app.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "Usage:")
}
