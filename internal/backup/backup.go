// Package backup exports the whole vault into one encrypted, versioned blob
// and restores it. The blob is sealed with a single cipher pass: a backup
// file is one secret, not a queryable store, so its confidentiality boundary
// is deliberately coarser than the per-record encryption inside the vault.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skuznetsov/finvault/internal/cryptox"
)

// CurrentFormatVersion is the backup format written by this build. Open
// rejects anything newer.
const CurrentFormatVersion = 1

// Manifest describes a backup payload.
type Manifest struct {
	BackupID      string    `json:"backup_id"`
	ExportedAt    time.Time `json:"exported_at"`
	FormatVersion int       `json:"format_version"`
	AccountCount  int       `json:"account_count"`
	PositionCount int       `json:"position_count"`
	SnapshotCount int       `json:"snapshot_count"`
	SettingCount  int       `json:"setting_count"`
}

// AccountRecord is the wire shape of an account, payload decrypted.
type AccountRecord struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Institution   string         `json:"institution,omitempty"`
	Kind          string         `json:"kind"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	SchemaVersion int            `json:"schema_version"`
	Demo          bool           `json:"demo,omitempty"`
	Payload       map[string]any `json:"payload"`
}

// PositionRecord is the wire shape of a stock position.
type PositionRecord struct {
	ID            string     `json:"id"`
	AccountID     string     `json:"account_id"`
	Symbol        string     `json:"symbol"`
	Shares        float64    `json:"shares"`
	PurchasePrice float64    `json:"purchase_price"`
	PurchaseDate  time.Time  `json:"purchase_date"`
	CurrentPrice  *float64   `json:"current_price,omitempty"`
	PriceUpdated  *time.Time `json:"price_updated,omitempty"`
}

// SnapshotRecord is the wire shape of a snapshot, metadata decrypted.
type SnapshotRecord struct {
	ID         string         `json:"id"`
	AccountID  string         `json:"account_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Value      float64        `json:"value"`
	ChangeKind string         `json:"change_kind"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Payload is the full decrypted content of a backup.
type Payload struct {
	Manifest  Manifest          `json:"manifest"`
	Accounts  []AccountRecord   `json:"accounts"`
	Positions []PositionRecord  `json:"positions,omitempty"`
	Snapshots []SnapshotRecord  `json:"snapshots,omitempty"`
	Settings  map[string][]byte `json:"settings,omitempty"`
}

// Seal serializes and encrypts a payload with one cipher pass. The key may
// be the live session key or one derived from a dedicated backup
// passphrase.
func Seal(p *Payload, key []byte) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize backup: %w", err)
	}
	return cryptox.Encrypt(key, data)
}

// Open decrypts and decodes a sealed backup. A failed decryption reports
// ErrCorrupt whether the file was tampered with or the key is wrong; a
// payload from a newer build reports ErrUnsupportedVersion.
func Open(sealed, key []byte) (*Payload, error) {
	data, err := cryptox.Decrypt(key, sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}
	if p.Manifest.FormatVersion > CurrentFormatVersion {
		return nil, fmt.Errorf("%w: version %d, this build reads up to %d",
			ErrUnsupportedVersion, p.Manifest.FormatVersion, CurrentFormatVersion)
	}
	return &p, nil
}
