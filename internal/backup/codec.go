package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skuznetsov/finvault/internal/common"
	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/ledger"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/repositories/positions"
	"github.com/skuznetsov/finvault/internal/repositories/snapshots"
	"github.com/skuznetsov/finvault/internal/store"
)

// Report summarizes one restore run. Errors carries one message per record
// that could not be imported; a non-empty Errors does not mean the run
// failed.
type Report struct {
	Imported int
	Skipped  int
	Errors   []string
}

func (r *Report) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Codec moves whole vaults in and out of sealed payloads. Accounts travel
// through the store so kind validation and payload encryption apply;
// positions and snapshots are written through the repositories directly so
// their original ids survive the round trip.
type Codec struct {
	store     *store.Store
	ledger    *ledger.Ledger
	session   *cryptox.Session
	log       logging.Logger
	positions positions.Repository
	snapshots snapshots.Repository
	now       func() time.Time
}

func NewCodec(st *store.Store, led *ledger.Ledger, sess *cryptox.Session, log logging.Logger) *Codec {
	return &Codec{
		store:     st,
		ledger:    led,
		session:   sess,
		log:       log,
		positions: positions.NewSQLiteRepository(st.DB()),
		snapshots: snapshots.NewSQLiteRepository(st.DB()),
		now:       time.Now,
	}
}

// Export serializes every account with its positions, the application
// settings and, optionally, the full snapshot history into one in-memory
// payload tagged with the current format version.
func (c *Codec) Export(ctx context.Context, includeSnapshots bool) (*Payload, error) {
	accts, err := c.store.Accounts(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	p := &Payload{}
	for i := range accts {
		a := &accts[i]
		p.Accounts = append(p.Accounts, AccountRecord{
			ID:            a.ID,
			Name:          a.Name,
			Institution:   a.Institution,
			Kind:          string(a.Kind),
			CreatedAt:     a.CreatedAt,
			UpdatedAt:     a.UpdatedAt,
			SchemaVersion: a.SchemaVersion,
			Demo:          a.Demo,
			Payload:       a.Payload,
		})

		pos, err := c.store.Positions(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for j := range pos {
			p.Positions = append(p.Positions, PositionRecord{
				ID:            pos[j].ID,
				AccountID:     pos[j].AccountID,
				Symbol:        pos[j].Symbol,
				Shares:        pos[j].Shares,
				PurchasePrice: pos[j].PurchasePrice,
				PurchaseDate:  pos[j].PurchaseDate,
				CurrentPrice:  pos[j].CurrentPrice,
				PriceUpdated:  pos[j].PriceUpdated,
			})
		}

		if !includeSnapshots {
			continue
		}
		snaps, err := c.ledger.Query(ctx, a.ID, ledger.QueryOptions{})
		if err != nil {
			return nil, err
		}
		for j := range snaps {
			p.Snapshots = append(p.Snapshots, SnapshotRecord{
				ID:         snaps[j].ID,
				AccountID:  snaps[j].AccountID,
				Timestamp:  snaps[j].Timestamp,
				Value:      snaps[j].Value,
				ChangeKind: string(snaps[j].ChangeKind),
				Metadata:   snaps[j].Metadata,
			})
		}
	}

	settings, err := c.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	p.Settings = settings

	p.Manifest = Manifest{
		BackupID:      uuid.NewString(),
		ExportedAt:    c.now().UTC(),
		FormatVersion: CurrentFormatVersion,
		AccountCount:  len(p.Accounts),
		PositionCount: len(p.Positions),
		SnapshotCount: len(p.Snapshots),
		SettingCount:  len(p.Settings),
	}
	return p, nil
}

// Restore imports a payload record by record. Existing ids are skipped
// unless overwrite is set, in which case they are updated in place. A bad
// record lands in the report's Errors and the batch continues; the only
// hard failure is a payload that does not validate structurally.
func (c *Codec) Restore(ctx context.Context, p *Payload, overwrite bool) (*Report, error) {
	if v := Validate(p); !v.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrStructuralMismatch, v.Errors[0])
	}

	report := &Report{}
	for i := range p.Accounts {
		c.restoreAccount(ctx, &p.Accounts[i], overwrite, report)
	}
	for i := range p.Positions {
		c.restorePosition(ctx, &p.Positions[i], overwrite, report)
	}
	for i := range p.Snapshots {
		c.restoreSnapshot(ctx, &p.Snapshots[i], overwrite, report)
	}
	c.restoreSettings(ctx, p.Settings, overwrite, report)
	return report, nil
}

func (c *Codec) restoreAccount(ctx context.Context, rec *AccountRecord, overwrite bool, report *Report) {
	existing, err := c.store.Account(ctx, rec.ID)
	switch {
	case err == nil && !overwrite:
		report.Skipped++

	case err == nil:
		// Replace the payload wholesale: merge the backup's keys in and
		// nil out whatever the live record has on top.
		update := store.AccountUpdate{
			Name:        &rec.Name,
			Institution: &rec.Institution,
			Payload:     make(map[string]any, len(rec.Payload)),
		}
		for k := range existing.Payload {
			if _, ok := rec.Payload[k]; !ok {
				update.Payload[k] = nil
			}
		}
		for k, v := range rec.Payload {
			update.Payload[k] = v
		}
		if _, err := c.store.UpdateAccount(ctx, rec.ID, update); err != nil {
			report.fail("account %s: %s", rec.ID, err)
			return
		}
		report.Imported++

	case errors.Is(err, common.ErrNotFound):
		na := store.NewAccount{
			ID:          rec.ID,
			Name:        rec.Name,
			Institution: rec.Institution,
			Kind:        models.Kind(rec.Kind),
			Payload:     rec.Payload,
			Demo:        rec.Demo,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		}
		if _, err := c.store.CreateAccount(ctx, na); err != nil {
			// A concurrent writer may have claimed the id; retry once
			// under a fresh one.
			if _, again := c.store.Account(ctx, rec.ID); again == nil {
				na.ID = ""
				if _, err := c.store.CreateAccount(ctx, na); err == nil {
					report.Imported++
					return
				}
			}
			report.fail("account %s: %s", rec.ID, err)
			return
		}
		report.Imported++

	default:
		report.fail("account %s: %s", rec.ID, err)
	}
}

func (c *Codec) restorePosition(ctx context.Context, rec *PositionRecord, overwrite bool, report *Report) {
	if _, err := c.store.Account(ctx, rec.AccountID); err != nil {
		report.fail("position %s: account %s: %s", rec.ID, rec.AccountID, err)
		return
	}

	_, err := c.positions.GetByID(ctx, rec.ID)
	switch {
	case err == nil && !overwrite:
		report.Skipped++
		return
	case err == nil:
		if err := c.positions.Delete(ctx, rec.ID); err != nil {
			report.fail("position %s: %s", rec.ID, err)
			return
		}
	case !errors.Is(err, common.ErrNotFound):
		report.fail("position %s: %s", rec.ID, err)
		return
	}

	row := &positions.Record{
		ID:            rec.ID,
		AccountID:     rec.AccountID,
		Symbol:        rec.Symbol,
		Shares:        rec.Shares,
		PurchasePrice: rec.PurchasePrice,
		PurchaseDate:  rec.PurchaseDate.Unix(),
		CurrentPrice:  rec.CurrentPrice,
	}
	if rec.PriceUpdated != nil {
		ts := rec.PriceUpdated.Unix()
		row.PriceUpdatedAt = &ts
	}
	if err := c.positions.Insert(ctx, row); err != nil {
		report.fail("position %s: %s", rec.ID, err)
		return
	}
	report.Imported++
}

func (c *Codec) restoreSnapshot(ctx context.Context, rec *SnapshotRecord, overwrite bool, report *Report) {
	exists, err := c.snapshots.Exists(ctx, rec.ID)
	if err != nil {
		report.fail("snapshot %s: %s", rec.ID, err)
		return
	}
	if exists {
		// Snapshots are immutable, so overwrite never rewrites one.
		report.Skipped++
		return
	}

	var blob []byte
	if len(rec.Metadata) > 0 {
		key, err := c.session.Key()
		if err != nil {
			report.fail("snapshot %s: %s", rec.ID, err)
			return
		}
		if blob, err = cryptox.EncryptJSON(rec.Metadata, key); err != nil {
			report.fail("snapshot %s: %s", rec.ID, err)
			return
		}
	}
	err = c.snapshots.Insert(ctx, &snapshots.Record{
		ID:         rec.ID,
		AccountID:  rec.AccountID,
		Timestamp:  rec.Timestamp.Unix(),
		Value:      rec.Value,
		ChangeKind: rec.ChangeKind,
		Metadata:   blob,
	})
	if err != nil {
		report.fail("snapshot %s: %s", rec.ID, err)
		return
	}
	report.Imported++
}

func (c *Codec) restoreSettings(ctx context.Context, values map[string][]byte, overwrite bool, report *Report) {
	for key, value := range values {
		if _, err := c.store.Setting(ctx, key); err == nil && !overwrite {
			report.Skipped++
			continue
		} else if err != nil && !errors.Is(err, common.ErrNotFound) {
			report.fail("setting %s: %s", key, err)
			continue
		}
		if err := c.store.SetSetting(ctx, key, value); err != nil {
			report.fail("setting %s: %s", key, err)
			continue
		}
		report.Imported++
	}
}
