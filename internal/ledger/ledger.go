// Package ledger is the append-only value history of accounts. Snapshots
// are never updated in place: the only writes are appends and bulk purges
// by age, so the history stays trustworthy for analytics.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/skuznetsov/finvault/internal/common"
	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/dbx"
	"github.com/skuznetsov/finvault/internal/logging"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/repositories/snapshots"
)

// DefaultThreshold is the minimum absolute value change that makes
// AppendIfChanged record a new snapshot.
const DefaultThreshold = 0.01

// QueryOptions bounds a history query. Nil bounds mean unbounded; Limit 0
// means no limit.
type QueryOptions struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// Ledger appends and queries snapshots. Metadata is encrypted with the
// session key; values and timestamps stay plaintext so purges and range
// queries work without decryption.
type Ledger struct {
	snapshots snapshots.Repository
	session   *cryptox.Session
	log       logging.Logger
	threshold float64
	now       func() time.Time
}

func New(db dbx.DBTX, session *cryptox.Session, log logging.Logger) *Ledger {
	return &Ledger{
		snapshots: snapshots.NewSQLiteRepository(db),
		session:   session,
		log:       log,
		threshold: DefaultThreshold,
		now:       time.Now,
	}
}

// SetThreshold overrides the AppendIfChanged sensitivity.
func (l *Ledger) SetThreshold(v float64) {
	l.threshold = v
}

// Append records a snapshot at the current instant. Returns the snapshot id.
func (l *Ledger) Append(ctx context.Context, accountID string, value float64,
	kind models.ChangeKind, metadata map[string]any) (string, error) {
	return l.AppendAt(ctx, accountID, l.now(), value, kind, metadata)
}

// AppendAt records a snapshot at a given historic instant. Used by restore
// and the demo seeder; the timestamp must not be in the future.
func (l *Ledger) AppendAt(ctx context.Context, accountID string, ts time.Time,
	value float64, kind models.ChangeKind, metadata map[string]any) (string, error) {

	s := &models.Snapshot{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Timestamp:  ts,
		Value:      value,
		ChangeKind: kind,
		Metadata:   metadata,
	}
	if err := s.Validate(l.now()); err != nil {
		return "", err
	}

	var blob []byte
	if len(metadata) > 0 {
		key, err := l.session.Key()
		if err != nil {
			return "", err
		}
		blob, err = cryptox.EncryptJSON(metadata, key)
		if err != nil {
			return "", fmt.Errorf("failed to seal snapshot metadata: %w", err)
		}
	}

	err := l.snapshots.Insert(ctx, &snapshots.Record{
		ID:         s.ID,
		AccountID:  accountID,
		Timestamp:  ts.Unix(),
		Value:      value,
		ChangeKind: string(kind),
		Metadata:   blob,
	})
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// AppendIfChanged records a snapshot only when the value moved by at least
// the threshold since the newest snapshot. The first snapshot of an account
// is always recorded. Returns "" when the change was below the threshold.
func (l *Ledger) AppendIfChanged(ctx context.Context, accountID string, value float64,
	kind models.ChangeKind, metadata map[string]any) (string, error) {

	latest, err := l.snapshots.LatestByAccount(ctx, accountID)
	if errors.Is(err, common.ErrNotFound) {
		return l.Append(ctx, accountID, value, kind, metadata)
	}
	if err != nil {
		return "", err
	}
	if math.Abs(value-latest.Value) < l.threshold {
		return "", nil
	}
	return l.Append(ctx, accountID, value, kind, metadata)
}

// Query returns snapshots newest-first within the bounds. Metadata that
// fails to decrypt is dropped from the snapshot and logged; the snapshot
// itself is still returned.
func (l *Ledger) Query(ctx context.Context, accountID string, opts QueryOptions) ([]models.Snapshot, error) {
	f := snapshots.QueryFilter{Limit: opts.Limit}
	if opts.Start != nil {
		ts := opts.Start.Unix()
		f.Start = &ts
	}
	if opts.End != nil {
		ts := opts.End.Unix()
		f.End = &ts
	}

	recs, err := l.snapshots.ListByAccount(ctx, accountID, f)
	if err != nil {
		return nil, err
	}

	var key []byte
	result := make([]models.Snapshot, 0, len(recs))
	for i := range recs {
		s := models.Snapshot{
			ID:         recs[i].ID,
			AccountID:  recs[i].AccountID,
			Timestamp:  time.Unix(recs[i].Timestamp, 0).UTC(),
			Value:      recs[i].Value,
			ChangeKind: models.ChangeKind(recs[i].ChangeKind),
		}
		if len(recs[i].Metadata) > 0 {
			if key == nil {
				if key, err = l.session.Key(); err != nil {
					return nil, err
				}
			}
			var meta map[string]any
			if err := cryptox.DecryptJSON(recs[i].Metadata, key, &meta); err != nil {
				l.log.Warn(ctx, "dropping undecryptable snapshot metadata",
					"id", recs[i].ID, "error", err)
			} else {
				s.Metadata = meta
			}
		}
		result = append(result, s)
	}
	return result, nil
}

// Latest returns the newest snapshot of an account, or common.ErrNotFound.
func (l *Ledger) Latest(ctx context.Context, accountID string) (*models.Snapshot, error) {
	recs, err := l.Query(ctx, accountID, QueryOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.ErrNotFound
	}
	return &recs[0], nil
}

// PurgeOlderThan deletes snapshots older than the retention window. The
// newest snapshot of the account is always kept, even when it is older than
// the window, so the account never loses its last known value. Returns the
// number deleted.
func (l *Ledger) PurgeOlderThan(ctx context.Context, accountID string, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	latest, err := l.snapshots.LatestByAccount(ctx, accountID)
	if errors.Is(err, common.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cutoff := l.now().AddDate(0, 0, -retentionDays).Unix()
	return l.snapshots.DeleteOlderThan(ctx, accountID, cutoff, latest.ID)
}
