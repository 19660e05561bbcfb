// Package cli is the command-line surface of the vault: it owns the
// password handshake and hands an unlocked session to the core packages.
package cli

import (
	"bufio"
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/skuznetsov/finvault/internal/backup"
	"github.com/skuznetsov/finvault/internal/common"
	"github.com/skuznetsov/finvault/internal/config"
	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/flagx"
	"github.com/skuznetsov/finvault/internal/ledger"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/repositories/settings"
	"github.com/skuznetsov/finvault/internal/store"

	_ "modernc.org/sqlite"
)

// globalFlags are the flags consumed by the config layer; Run strips them
// before looking for a subcommand.
var globalFlags = []string{"-c", "-config", "-d", "-i", "-r", "-t"}

// App wires the config, logger and I/O streams of one CLI invocation.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config) *App {
	return &App{
		cfg:    cfg,
		log:    logging.NewTextLogger(os.Stderr, slog.LevelInfo),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// vault bundles everything behind one unlocked session.
type vault struct {
	db      *sql.DB
	session *cryptox.Session
	store   *store.Store
	ledger  *ledger.Ledger
	codec   *backup.Codec
}

func (v *vault) close() {
	v.session.Close()
	_ = v.db.Close()
}

// Run dispatches a subcommand. The args are the raw command line without
// the program name; config flags are stripped first.
func (a *App) Run(ctx context.Context, args []string) error {
	rest := stripGlobalFlags(args)
	if len(rest) == 0 {
		a.usage()
		return nil
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "init":
		return a.cmdInit(ctx)
	case "list":
		return a.cmdList(ctx)
	case "demo":
		return a.cmdDemo(ctx)
	case "demo-clean":
		return a.cmdDemoClean(ctx)
	case "export":
		return a.cmdExport(ctx, cmdArgs)
	case "import":
		return a.cmdImport(ctx, cmdArgs)
	case "purge":
		return a.cmdPurge(ctx)
	case "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `Usage: vault [flags] <command>

Commands:
  init                 create the vault and set the master password
  list                 show accounts with their current values
  demo                 seed demo accounts with a year of history
  demo-clean           remove the demo accounts
  export <file>        write an encrypted backup (add -no-snapshots to shrink it)
  import <file>        restore from an encrypted backup (add -overwrite to replace)
  purge                drop snapshots older than the retention window

Flags:
  -c file   JSON config file
  -d path   vault database file
  -i n      PBKDF2 iterations
  -r days   snapshot retention
  -t value  snapshot change threshold`)
}

func (a *App) openDB(ctx context.Context) (*sql.DB, error) {
	return store.OpenDB(ctx, a.cfg.DatabasePath)
}

// openVault runs the password handshake: load salt and verifier, derive the
// key, compare in constant time, build a bounded session and wire the core
// on top of it.
func (a *App) openVault(ctx context.Context) (*vault, error) {
	db, err := a.openDB(ctx)
	if err != nil {
		return nil, err
	}

	repo := settings.NewSQLiteRepository(db)
	salt, err := repo.Get(ctx, store.SettingKeySalt)
	if errors.Is(err, common.ErrNotFound) {
		db.Close()
		return nil, errors.New("vault is not initialized, run 'init' first")
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	verifier, err := repo.Get(ctx, store.SettingKeyVerifier)
	if err != nil {
		db.Close()
		return nil, err
	}

	password, err := GetPassword(a.out, "Enter master password")
	if err != nil {
		db.Close()
		return nil, err
	}
	dk, err := cryptox.DeriveKey(password, salt, a.cfg.PBKDF2Iterations)
	cryptox.WipeBytes(password)
	if err != nil {
		db.Close()
		return nil, err
	}
	if subtle.ConstantTimeCompare(cryptox.MakeVerifier(dk.Key), verifier) != 1 {
		cryptox.WipeBytes(dk.Key)
		db.Close()
		return nil, cryptox.ErrAuthenticationFailed
	}

	session := cryptox.NewSession(dk, a.cfg.SessionTTL)
	st := store.New(db, session, models.DefaultRegistry(), a.log)
	led := ledger.New(db, session, a.log)
	led.SetThreshold(a.cfg.SnapshotThreshold)
	st.SetLedger(led)

	return &vault{
		db:      db,
		session: session,
		store:   st,
		ledger:  led,
		codec:   backup.NewCodec(st, led, session, a.log),
	}, nil
}

func stripGlobalFlags(args []string) []string {
	return flagx.StripArgs(args, globalFlags)
}
