// Package auth verifies passwords against stored hashes of mixed vintage.
//
// Current accounts store bcrypt. Rows that predate the salted scheme hold a
// raw SHA-256 (64 hex chars) or MD5 (32 hex chars) digest; those still
// authenticate, and a successful match reports NeedsRehash so the caller
// can transparently replace the stored value with bcrypt. No bulk migration,
// no forced resets.
package auth

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the single rejection for every authentication
// failure. Handlers must not let the cause (unknown email, wrong password,
// inactive account) alter the client-facing message.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	legacyMD5HexLen    = 32
	legacySHA256HexLen = 64
)

// VerifyResult reports the outcome of a verification attempt.
type VerifyResult struct {
	OK bool
	// NeedsRehash is set when a legacy strategy matched; the stored hash
	// should be replaced with a bcrypt one.
	NeedsRehash bool
	// Strategy names the matching tier, for server-side logging only.
	Strategy string
}

type strategy struct {
	name   string
	legacy bool
	match  func(password, stored string) bool
}

// Tried in order; the first match wins. The legacy tiers only apply when
// the stored value has exactly the digest's hex length.
var strategies = []strategy{
	{name: "bcrypt", match: matchBcrypt},
	{name: "legacy-sha256", legacy: true, match: matchLegacySHA256},
	{name: "legacy-md5", legacy: true, match: matchLegacyMD5},
}

// VerifyPassword runs the verification cascade. A missing stored hash never
// matches.
func VerifyPassword(password, stored string) VerifyResult {
	if stored == "" {
		return VerifyResult{}
	}
	for _, s := range strategies {
		if s.match(password, stored) {
			return VerifyResult{OK: true, NeedsRehash: s.legacy, Strategy: s.name}
		}
	}
	return VerifyResult{}
}

// HashPassword produces a bcrypt hash with the given cost. Cost 0 selects
// the bcrypt default.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func matchBcrypt(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func matchLegacySHA256(password, stored string) bool {
	if len(stored) != legacySHA256HexLen || !isHex(stored) {
		return false
	}
	sum := sha256.Sum256([]byte(password))
	candidate := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}

func matchLegacyMD5(password, stored string) bool {
	if len(stored) != legacyMD5HexLen || !isHex(stored) {
		return false
	}
	sum := md5.Sum([]byte(password))
	candidate := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
