package store

import (
	"context"
	"fmt"

	"github.com/skuznetsov/finvault/internal/cryptox"
)

// SetSetting stores an encrypted application setting. The reserved
// bootstrap keys cannot be written through this path.
func (s *Store) SetSetting(ctx context.Context, key string, value []byte) error {
	if key == SettingKeySalt || key == SettingKeyVerifier {
		return fmt.Errorf("setting key %q is reserved", key)
	}
	k, err := s.session.Key()
	if err != nil {
		return err
	}
	blob, err := cryptox.Encrypt(k, value)
	if err != nil {
		return err
	}
	return s.settings.Set(ctx, key, blob)
}

// Setting returns a decrypted application setting, or common.ErrNotFound.
func (s *Store) Setting(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.settings.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	k, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	return cryptox.Decrypt(k, blob)
}

// Settings returns every decrypted application setting. The raw bootstrap
// rows are excluded; rows that fail to decrypt are skipped and logged.
func (s *Store) Settings(ctx context.Context) (map[string][]byte, error) {
	all, err := s.settings.All(ctx)
	if err != nil {
		return nil, err
	}
	k, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(all))
	for key, blob := range all {
		if key == SettingKeySalt || key == SettingKeyVerifier {
			continue
		}
		value, err := cryptox.Decrypt(k, blob)
		if err != nil {
			s.log.Warn(ctx, "skipping undecryptable setting", "key", key, "error", err)
			continue
		}
		result[key] = value
	}
	return result, nil
}
