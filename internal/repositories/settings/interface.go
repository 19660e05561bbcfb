// Package settings persists small key/value entries such as the key
// derivation salt and the password verifier. Values are opaque bytes;
// callers decide whether an entry is encrypted.
package settings

import "context"

type Repository interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	All(ctx context.Context) (map[string][]byte, error)
	Delete(ctx context.Context, key string) error
}
