package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/skuznetsov/finvault/internal/backup"
	"github.com/skuznetsov/finvault/internal/common"
	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/demo"
	"github.com/skuznetsov/finvault/internal/repositories/settings"
	"github.com/skuznetsov/finvault/internal/store"
)

func (a *App) cmdInit(ctx context.Context) error {
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := settings.NewSQLiteRepository(db)
	if _, err := repo.Get(ctx, store.SettingKeySalt); err == nil {
		return errors.New("vault is already initialized")
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	password, err := GetPassword(a.out, "Choose a master password")
	if err != nil {
		return err
	}
	defer cryptox.WipeBytes(password)
	confirm, err := GetPassword(a.out, "Repeat the master password")
	if err != nil {
		return err
	}
	defer cryptox.WipeBytes(confirm)
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	dk, err := cryptox.DeriveKey(password, nil, a.cfg.PBKDF2Iterations)
	if err != nil {
		return err
	}
	defer cryptox.WipeBytes(dk.Key)

	if err := repo.Set(ctx, store.SettingKeySalt, dk.Salt); err != nil {
		return err
	}
	if err := repo.Set(ctx, store.SettingKeyVerifier, cryptox.MakeVerifier(dk.Key)); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Vault initialized at %s\n", a.cfg.DatabasePath)
	return nil
}

func (a *App) cmdList(ctx context.Context) error {
	v, err := a.openVault(ctx)
	if err != nil {
		return err
	}
	defer v.close()

	accts, err := v.store.Accounts(ctx, store.Filter{})
	if err != nil {
		return err
	}
	if len(accts) == 0 {
		fmt.Fprintln(a.out, "No accounts yet.")
		return nil
	}

	var total float64
	fmt.Fprintf(a.out, "%-28s %-16s %-20s %14s\n", "NAME", "KIND", "INSTITUTION", "VALUE")
	for i := range accts {
		value, err := v.store.CurrentValue(ctx, accts[i].ID)
		if err != nil {
			return err
		}
		total += value
		fmt.Fprintf(a.out, "%-28s %-16s %-20s %14.2f\n",
			accts[i].Name, accts[i].Kind, accts[i].Institution, value)
	}
	fmt.Fprintf(a.out, "%-66s %14.2f\n", "TOTAL", total)
	return nil
}

func (a *App) cmdDemo(ctx context.Context) error {
	v, err := a.openVault(ctx)
	if err != nil {
		return err
	}
	defer v.close()

	n, err := demo.Generate(ctx, v.store, v.ledger)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Seeded %d demo accounts with a year of history.\n", n)
	return nil
}

func (a *App) cmdDemoClean(ctx context.Context) error {
	v, err := a.openVault(ctx)
	if err != nil {
		return err
	}
	defer v.close()

	n, err := v.store.DeleteDemo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d demo accounts.\n", n)
	return nil
}

func (a *App) cmdExport(ctx context.Context, args []string) error {
	var path string
	includeSnapshots := true
	for _, arg := range args {
		if arg == "-no-snapshots" {
			includeSnapshots = false
			continue
		}
		path = arg
	}
	if path == "" {
		return errors.New("usage: export <file> [-no-snapshots]")
	}

	v, err := a.openVault(ctx)
	if err != nil {
		return err
	}
	defer v.close()

	payload, err := v.codec.Export(ctx, includeSnapshots)
	if err != nil {
		return err
	}
	key, err := v.session.Key()
	if err != nil {
		return err
	}
	sealed, err := backup.Seal(payload, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Exported %d accounts, %d positions, %d snapshots to %s\n",
		payload.Manifest.AccountCount, payload.Manifest.PositionCount,
		payload.Manifest.SnapshotCount, path)
	return nil
}

func (a *App) cmdImport(ctx context.Context, args []string) error {
	var path string
	overwrite := false
	for _, arg := range args {
		if arg == "-overwrite" {
			overwrite = true
			continue
		}
		path = arg
	}
	if path == "" {
		return errors.New("usage: import <file> [-overwrite]")
	}
	if overwrite {
		answer, err := GetSimpleText(a.reader,
			"Importing with -overwrite replaces existing records. Type 'yes' to continue", a.out)
		if err != nil {
			return err
		}
		if answer != "yes" {
			fmt.Fprintln(a.out, "Import cancelled.")
			return nil
		}
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	v, err := a.openVault(ctx)
	if err != nil {
		return err
	}
	defer v.close()

	key, err := v.session.Key()
	if err != nil {
		return err
	}
	payload, err := backup.Open(sealed, key)
	if err != nil {
		return err
	}

	report, err := v.codec.Restore(ctx, payload, overwrite)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d records, skipped %d.\n", report.Imported, report.Skipped)
	for _, msg := range report.Errors {
		fmt.Fprintf(a.out, "  error: %s\n", msg)
	}
	return nil
}

func (a *App) cmdPurge(ctx context.Context) error {
	v, err := a.openVault(ctx)
	if err != nil {
		return err
	}
	defer v.close()

	accts, err := v.store.Accounts(ctx, store.Filter{})
	if err != nil {
		return err
	}

	var total int64
	for i := range accts {
		n, err := v.ledger.PurgeOlderThan(ctx, accts[i].ID, a.cfg.RetentionDays)
		if err != nil {
			return err
		}
		total += n
	}
	fmt.Fprintf(a.out, "Purged %d snapshots older than %d days.\n", total, a.cfg.RetentionDays)
	return nil
}
