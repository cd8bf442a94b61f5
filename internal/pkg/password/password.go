// Package password owns credential hashing. Clients historically send an
// unsalted MD5 fingerprint of the password instead of the raw text, so every
// path that touches a password (register, login, reset) must normalize the
// input the same way before the slow hash.
package password

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"github.com/stayhub/stayhub-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Work factor matches the legacy backend's bcrypt salt rounds.
const cost = 10

var fingerprintRe = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)

// Normalize returns the MD5 hex fingerprint of plaintext. Input that already
// has the fingerprint shape (32 hex chars) is passed through unchanged.
func Normalize(plaintext string) string {
	if fingerprintRe.MatchString(plaintext) {
		return plaintext
	}
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Hash normalizes plaintext and applies a salted bcrypt hash. The result is
// the only password-derived value that may be persisted.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(Normalize(plaintext)), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether candidate matches the stored bcrypt hash. A plain
// mismatch is (false, nil); only a structurally invalid stored hash yields
// an error, wrapping domain.ErrHashFormat.
func Verify(candidate, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(Normalize(candidate)))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%v: %w", err, domain.ErrHashFormat)
	}
}
