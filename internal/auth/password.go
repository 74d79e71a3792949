package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// HashPassword derives a scrypt digest and returns it as "digest.salt",
// both hex encoded. The salt is 16 random bytes.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	// The salt string, not its raw bytes, is the scrypt input so that
	// stored hashes survive re-encoding round trips.
	hexSalt := hex.EncodeToString(salt)
	key, err := scrypt.Key([]byte(password), []byte(hexSalt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	return hex.EncodeToString(key) + "." + hexSalt, nil
}

// ComparePassword checks a supplied password against a stored "digest.salt"
// value in constant time. A malformed stored value is an error, not a
// mismatch.
func ComparePassword(supplied, stored string) (bool, error) {
	digest, salt, ok := strings.Cut(stored, ".")
	if !ok || digest == "" || salt == "" {
		return false, fmt.Errorf("malformed stored password")
	}
	want, err := hex.DecodeString(digest)
	if err != nil {
		return false, fmt.Errorf("malformed stored digest: %w", err)
	}
	got, err := scrypt.Key([]byte(supplied), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, fmt.Errorf("derive key: %w", err)
	}
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
