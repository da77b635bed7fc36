package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltBytes     = 16
	argonTime     = 1
	argonMemory   = 64 * 1024
	argonThreads  = 4
	argonKeyBytes = 32
)

// HashPassword derives a hex-encoded argon2id hash using a freshly generated salt.
// It returns the hash and the hex-encoded salt.
func HashPassword(password string) (string, string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	encodedSalt := hex.EncodeToString(salt)
	return Encrypt(password, encodedSalt), encodedSalt, nil
}

// Encrypt hashes password with the given hex salt.
func Encrypt(password, salt string) string {
	if password == "" {
		return ""
	}
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyBytes)
	return hex.EncodeToString(key)
}
