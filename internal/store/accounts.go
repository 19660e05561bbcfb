package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/dbx"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/repositories/accounts"
	"github.com/skuznetsov/finvault/internal/repositories/positions"
	"github.com/skuznetsov/finvault/internal/repositories/snapshots"
)

// NewAccount carries the fields of an account to create. ID and the
// timestamps are optional; when zero they are generated.
type NewAccount struct {
	ID          string
	Name        string
	Institution string
	Kind        models.Kind
	Payload     map[string]any
	Demo        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountUpdate is a partial update. Nil pointers leave the column
// untouched; Payload entries are merged key by key into the decrypted
// payload, a nil entry value deletes the key.
type AccountUpdate struct {
	Name        *string
	Institution *string
	Payload     map[string]any
}

// Filter selects accounts by their plaintext index columns. Zero values
// mean "any".
type Filter struct {
	Kind models.Kind
	Name string
	Demo *bool
}

// CreateAccount validates the payload against the kind's registry spec,
// encrypts it and inserts the row. Returns the account id.
func (s *Store) CreateAccount(ctx context.Context, na NewAccount) (string, error) {
	if na.Name == "" {
		return "", &models.ValidationError{Field: "name", Value: na.Name, Reason: "must not be empty"}
	}
	if _, ok := s.registry.Lookup(na.Kind); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, na.Kind)
	}
	now := s.now()
	if err := s.registry.Validate(na.Kind, na.Payload, now); err != nil {
		return "", err
	}

	key, err := s.session.Key()
	if err != nil {
		return "", err
	}
	blob, err := cryptox.EncryptJSON(na.Payload, key)
	if err != nil {
		return "", fmt.Errorf("failed to seal payload: %w", err)
	}

	id := na.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := na.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := na.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	rec := &accounts.Record{
		ID:            id,
		Name:          na.Name,
		Institution:   na.Institution,
		Kind:          string(na.Kind),
		Payload:       blob,
		CreatedAt:     createdAt.Unix(),
		UpdatedAt:     updatedAt.Unix(),
		SchemaVersion: CurrentSchemaVersion,
		Demo:          na.Demo,
	}
	if err := s.accounts.Insert(ctx, rec); err != nil {
		return "", err
	}
	return id, nil
}

// Account returns one decrypted account. Payloads written by older builds
// are upgraded in memory on the way out.
func (s *Store) Account(ctx context.Context, id string) (*models.Account, error) {
	rec, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	return decodeAccount(rec, key)
}

// Accounts returns decrypted accounts matching the filter, ordered by name.
// Rows whose payload cannot be decrypted are skipped and logged rather than
// failing the whole listing.
func (s *Store) Accounts(ctx context.Context, f Filter) ([]models.Account, error) {
	recs, err := s.accounts.List(ctx, accounts.Filter{
		Kind: string(f.Kind),
		Name: f.Name,
		Demo: f.Demo,
	})
	if err != nil {
		return nil, err
	}
	key, err := s.session.Key()
	if err != nil {
		return nil, err
	}

	result := make([]models.Account, 0, len(recs))
	for i := range recs {
		a, err := decodeAccount(&recs[i], key)
		if err != nil {
			s.log.Warn(ctx, "skipping undecryptable account", "id", recs[i].ID, "error", err)
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

// UpdateAccount merges the partial update into the stored account,
// re-validates the whole payload and re-encrypts it. Returns the updated
// account.
func (s *Store) UpdateAccount(ctx context.Context, id string, u AccountUpdate) (*models.Account, error) {
	a, err := s.Account(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		if *u.Name == "" {
			return nil, &models.ValidationError{Field: "name", Value: *u.Name, Reason: "must not be empty"}
		}
		a.Name = *u.Name
	}
	if u.Institution != nil {
		a.Institution = *u.Institution
	}
	if a.Payload == nil && len(u.Payload) > 0 {
		a.Payload = make(map[string]any, len(u.Payload))
	}
	for k, v := range u.Payload {
		if v == nil {
			delete(a.Payload, k)
			continue
		}
		a.Payload[k] = v
	}

	now := s.now()
	if err := s.registry.Validate(a.Kind, a.Payload, now); err != nil {
		return nil, err
	}

	key, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	blob, err := cryptox.EncryptJSON(a.Payload, key)
	if err != nil {
		return nil, fmt.Errorf("failed to seal payload: %w", err)
	}

	a.UpdatedAt = now
	a.SchemaVersion = CurrentSchemaVersion
	rec := &accounts.Record{
		ID:            a.ID,
		Name:          a.Name,
		Institution:   a.Institution,
		Kind:          string(a.Kind),
		Payload:       blob,
		CreatedAt:     a.CreatedAt.Unix(),
		UpdatedAt:     a.UpdatedAt.Unix(),
		SchemaVersion: a.SchemaVersion,
		Demo:          a.Demo,
	}
	if err := s.accounts.Update(ctx, rec); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAccount removes an account together with its positions and
// snapshots, atomically.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return deleteAccountTx(ctx, tx, id)
	})
}

// DeleteDemo removes every demo-flagged account with its children and
// returns the number of accounts deleted.
func (s *Store) DeleteDemo(ctx context.Context) (int, error) {
	demo := true
	ids, err := s.accounts.ListIDs(ctx, accounts.Filter{Demo: &demo})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			if err := deleteAccountTx(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CurrentValue computes the account's present value through its kind's
// value function, feeding in positions for kinds that own them.
func (s *Store) CurrentValue(ctx context.Context, id string) (float64, error) {
	a, err := s.Account(ctx, id)
	if err != nil {
		return 0, err
	}
	spec, ok := s.registry.Lookup(a.Kind)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, a.Kind)
	}
	var pos []models.Position
	if a.Kind == models.KindBrokerage {
		pos, err = s.Positions(ctx, id)
		if err != nil {
			return 0, err
		}
	}
	return spec.CurrentValue(a, pos), nil
}

func deleteAccountTx(ctx context.Context, tx dbx.DBTX, id string) error {
	if _, err := positions.NewSQLiteRepository(tx).DeleteByAccount(ctx, id); err != nil {
		return err
	}
	if _, err := snapshots.NewSQLiteRepository(tx).DeleteByAccount(ctx, id); err != nil {
		return err
	}
	return accounts.NewSQLiteRepository(tx).Delete(ctx, id)
}

func decodeAccount(rec *accounts.Record, key []byte) (*models.Account, error) {
	var payload map[string]any
	if err := cryptox.DecryptJSON(rec.Payload, key, &payload); err != nil {
		return nil, err
	}
	version := migratePayload(payload, rec.SchemaVersion)
	return &models.Account{
		ID:            rec.ID,
		Name:          rec.Name,
		Institution:   rec.Institution,
		Kind:          models.Kind(rec.Kind),
		CreatedAt:     time.Unix(rec.CreatedAt, 0).UTC(),
		UpdatedAt:     time.Unix(rec.UpdatedAt, 0).UTC(),
		SchemaVersion: version,
		Demo:          rec.Demo,
		Payload:       payload,
	}, nil
}
