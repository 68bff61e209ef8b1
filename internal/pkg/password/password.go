// Package password wraps bcrypt for stored credentials and SHA-256 for
// refresh token fingerprints. Login passwords get the slow adaptive
// hash; refresh tokens are already high-entropy random strings, so a
// plain digest is enough to keep the raw token out of the database.
package password

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt work factor. Raising it only affects newly created hashes,
// existing ones keep the cost they were generated with.
const hashCost = 12

// Hash derives a bcrypt hash from a plaintext password.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches a previously stored hash.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashToken returns the hex SHA-256 digest of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
