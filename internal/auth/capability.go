package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Capability answers whether a presented admin key grants operator access.
type Capability interface {
	Allow(key string) bool
}

// StaticKey compares against a configured secret. An empty secret denies
// everything, so an unconfigured deployment has no admin surface.
type StaticKey struct {
	secret string
}

func NewStaticKey(secret string) StaticKey {
	return StaticKey{secret: strings.TrimSpace(secret)}
}

func (s StaticKey) Allow(key string) bool {
	if s.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(key)), []byte(s.secret)) == 1
}

// HashedKey checks the presented key against a bcrypt hash, for
// deployments that refuse to keep the plain secret in the environment.
type HashedKey struct {
	hash []byte
}

func NewHashedKey(bcryptHash string) HashedKey {
	return HashedKey{hash: []byte(strings.TrimSpace(bcryptHash))}
}

func (h HashedKey) Allow(key string) bool {
	if len(h.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(h.hash, []byte(strings.TrimSpace(key))) == nil
}
