// Package cryptox holds the password hashing primitives used by the
// credential store. Passwords are stretched with Argon2id over a per-user
// random salt; only the salt and the derived hash are ever persisted.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/postbox/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the number of random bytes in a freshly generated salt.
	SaltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// ErrMalformedHash is returned when a stored salt or hash is not valid hex.
var ErrMalformedHash = errors.New("malformed password hash")

// DeriveKey stretches password with salt using Argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// NewSalt returns a random salt of SaltSize bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// HashPassword generates a new salt, derives the password hash and returns
// both hex-encoded, ready to be stored.
func HashPassword(password string) (saltHex, hashHex string) {
	salt := NewSalt()
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash := DeriveKey(pw, salt)
	return hex.EncodeToString(salt), hex.EncodeToString(hash)
}

// VerifyPassword re-derives the hash for password with the stored salt and
// compares it to the stored hash in constant time.
func VerifyPassword(password, saltHex, hashHex string) (bool, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) != argonKeyLen {
		return false, ErrMalformedHash
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	got := DeriveKey(pw, salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// BurnVerification spends the same work as a real verification. It is used
// when the user does not exist so that both paths take comparable time.
func BurnVerification(password string) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)
	_ = DeriveKey(pw, NewSalt())
}
