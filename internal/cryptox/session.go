package cryptox

import "time"

// Session holds the derived key for exactly one authenticated session. It is
// created after the master password has been verified and passed explicitly
// into store operations; once the session expires every Key call fails and
// the caller must re-derive from the password.
type Session struct {
	key       *DerivedKey
	expiresAt time.Time
	now       func() time.Time
}

// NewSession wraps a derived key with an expiry instant. A zero ttl means
// the session never expires (useful for one-shot CLI invocations).
func NewSession(key *DerivedKey, ttl time.Duration) *Session {
	s := &Session{key: key, now: time.Now}
	if ttl > 0 {
		s.expiresAt = s.now().Add(ttl)
	}
	return s
}

// Key returns the raw key bytes, or ErrNotInitialized if the session has
// expired or was closed.
func (s *Session) Key() ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, ErrNotInitialized
	}
	if !s.expiresAt.IsZero() && s.now().After(s.expiresAt) {
		return nil, ErrNotInitialized
	}
	return s.key.Key, nil
}

// Salt returns the salt the key was derived with, for callers that persist
// it for later re-derivation. Available even after expiry.
func (s *Session) Salt() []byte {
	if s == nil || s.key == nil {
		return nil
	}
	return s.key.Salt
}

// Expired reports whether the session key is no longer usable.
func (s *Session) Expired() bool {
	_, err := s.Key()
	return err != nil
}

// Close wipes the key material and invalidates the session.
func (s *Session) Close() {
	if s == nil || s.key == nil {
		return
	}
	WipeBytes(s.key.Key)
	s.key = nil
}
