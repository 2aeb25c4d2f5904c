package accounts

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltBytes gives 128 bits of entropy per account
	saltBytes = 16
	// hashKeyBytes is the derived key length
	hashKeyBytes = 32
	// hashIterations is the PBKDF2 work factor
	hashIterations = 100_000
)

// PasswordCipher derives and verifies salted one-way password hashes keyed
// with a process-wide secret. Hashing is deterministic over (password, salt,
// secret): the same inputs always yield the same digest, and the digest
// cannot be reproduced without the secret.
type PasswordCipher struct {
	secret     []byte
	iterations int
}

// NewPasswordCipher returns a cipher bound to the given process-wide secret.
func NewPasswordCipher(secret string) *PasswordCipher {
	return &PasswordCipher{
		secret:     []byte(secret),
		iterations: hashIterations,
	}
}

// GenerateSalt returns a fresh high-entropy salt, hex encoded.
func (c *PasswordCipher) GenerateSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives the one-way hash of password under salt and the cipher secret.
func (c *PasswordCipher) Hash(password, salt string) (string, error) {
	if password == "" || salt == "" {
		return "", ErrNoEmptyString
	}

	pepper := append([]byte(salt), c.secret...)
	key := pbkdf2.Key([]byte(password), pepper, c.iterations, hashKeyBytes, sha256.New)

	return hex.EncodeToString(key), nil
}

// Verify recomputes the hash for (password, salt) and compares it against
// expected in constant time.
func (c *PasswordCipher) Verify(password, salt, expected string) bool {
	computed, err := c.Hash(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1
}
