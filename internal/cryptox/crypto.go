// Package cryptox implements the cryptographic core of the vault: PBKDF2 key
// derivation from the master password, authenticated encryption of payload
// blobs with AES-256-GCM, and the session object that holds the derived key
// for the lifetime of an authenticated session.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the symmetric key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the length of a generated salt in bytes.
	SaltSize = 16

	// MinIterations is the PBKDF2 iteration floor. Derivation never runs
	// with fewer iterations, whatever the caller asks for.
	MinIterations = 100_000

	nonceSize = 12
)

// DerivedKey is a symmetric key derived from the master password together
// with the inputs needed to re-derive it. It lives in memory only and is
// never persisted (the salt alone may be stored).
type DerivedKey struct {
	Key        []byte
	Salt       []byte
	Iterations int
}

// DeriveKey derives a 32-byte key from password and salt using
// PBKDF2-HMAC-SHA256. A nil salt causes a fresh random 16-byte salt to be
// generated. Iterations below MinIterations are raised to MinIterations.
//
// Derivation is deterministic: the same (password, salt, iterations) always
// yields the same key. An empty password fails with ErrWeakInput.
func DeriveKey(password, salt []byte, iterations int) (*DerivedKey, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", ErrWeakInput)
	}
	if iterations < MinIterations {
		iterations = MinIterations
	}
	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	key := pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
	return &DerivedKey{Key: key, Salt: salt, Iterations: iterations}, nil
}

// MakeVerifier returns a value derived from the key that may be stored in
// plaintext and later compared (in constant time) to authenticate a
// re-derived key without persisting the key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// Encrypt seals plaintext with AES-256-GCM under key. A fresh random 12-byte
// nonce is generated per call and prepended to the returned ciphertext, so
// encrypting the same plaintext twice yields different output.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any tag-verification
// failure, truncation, or wrong key surfaces as ErrAuthenticationFailed;
// the cases are not distinguished.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < nonceSize {
		return nil, ErrAuthenticationFailed
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// EncryptJSON serializes v to JSON and encrypts it with Encrypt.
func EncryptJSON(v any, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	return Encrypt(key, plaintext)
}

// DecryptJSON decrypts a blob produced by EncryptJSON and unmarshals the
// plaintext into v.
func DecryptJSON(data, key []byte, v any) error {
	plaintext, err := Decrypt(key, data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("failed to deserialize payload: %w", err)
	}
	return nil
}

// WipeBytes overwrites b with zeros. Used to remove key material and
// passwords from memory after use. A nil slice is a no-op.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrNotInitialized
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrNotInitialized
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrNotInitialized
	}
	return aesgcm, nil
}
