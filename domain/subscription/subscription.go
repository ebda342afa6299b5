// Package subscription provides platform API key value types and pure
// validation functions. This package has NO dependencies on I/O beyond
// crypto/rand for key minting.
package subscription

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix is the printable prefix of every platform API key.
const KeyPrefix = "pak_"

// lookupLen is the number of leading characters stored alongside the hash
// for indexed lookup (prefix + 8 hex chars).
const lookupLen = 12

// Subscription binds a buyer to a service through a hashed platform key
// (immutable value type). The raw key is shown to the buyer exactly once,
// at mint time.
type Subscription struct {
	ID        string
	BuyerID   string
	ServiceID string
	KeyHash   []byte // bcrypt hash of the full raw key
	KeyPrefix string // first 12 chars of the raw key, for store lookup
	CreatedAt time.Time
	RevokedAt *time.Time // nil = active
}

// Active reports whether the subscription has not been revoked.
func (s Subscription) Active() bool {
	return s.RevokedAt == nil
}

// ValidationResult is the outcome of key validation (value type).
type ValidationResult struct {
	Valid  bool
	Sub    Subscription // populated only if Valid
	Reason string       // populated only if !Valid
}

// Reasons for validation failure.
const (
	ReasonNotFound  = "key_not_found"
	ReasonRevoked   = "key_revoked"
	ReasonBadFormat = "invalid_format"
)

// Mint creates a new platform API key for (buyerID, serviceID).
// Returns the raw key (to give to the buyer) and the Subscription to store.
// The raw key is KeyPrefix + 64 hex chars: 32 random bytes, well above the
// 128-bit unguessability floor.
func Mint(id, buyerID, serviceID string, now time.Time) (rawKey string, sub Subscription) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	rawKey = KeyPrefix + hex.EncodeToString(random)

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt failed: %v", err))
	}

	sub = Subscription{
		ID:        id,
		BuyerID:   buyerID,
		ServiceID: serviceID,
		KeyHash:   hash,
		KeyPrefix: rawKey[:lookupLen],
		CreatedAt: now.UTC(),
	}
	return rawKey, sub
}

// LookupPrefix extracts the store-lookup prefix from a raw key after a
// format check. Returns ("", false) for malformed keys.
// This is a PURE function.
func LookupPrefix(rawKey string) (prefix string, ok bool) {
	if !strings.HasPrefix(rawKey, KeyPrefix) {
		return "", false
	}
	if len(rawKey) != len(KeyPrefix)+64 {
		return "", false
	}
	return rawKey[:lookupLen], true
}

// Match reports whether rawKey is the key hashed into sub.
func Match(sub Subscription, rawKey string) bool {
	return bcrypt.CompareHashAndPassword(sub.KeyHash, []byte(rawKey)) == nil
}

// Validate checks whether a matched subscription may be used.
// This is a PURE function.
func Validate(sub Subscription) ValidationResult {
	if sub.RevokedAt != nil {
		return ValidationResult{Valid: false, Reason: ReasonRevoked}
	}
	return ValidationResult{Valid: true, Sub: sub}
}
