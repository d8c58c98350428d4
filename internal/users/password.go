// Package users manages tenant accounts and sub-admins: salted password
// hashing, JWT issue/verify, and the sub-admin lifecycle.
package users

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const pbkdf2Iterations = 100000

// HashPassword derives a salted PBKDF2-SHA256 hash. Returns the hex salt
// and hex hash.
func HashPassword(password string) (salt, hash string, err error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(raw)
	hash = deriveHash(password, salt)
	return salt, hash, nil
}

// VerifyPassword checks a password against a stored salt and hash.
func VerifyPassword(password, salt, storedHash string) bool {
	if salt == "" || storedHash == "" {
		return false
	}
	derived := deriveHash(password, salt)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(storedHash)) == 1
}

func deriveHash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(key)
}
