package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong means the plaintext exceeds bcrypt's 72-byte input
// limit. Request validation caps length in runes, so multi-byte input can
// still trip this.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// passwordCost is deliberately modest; login latency matters more than the
// marginal brute-force resistance above this work factor.
const passwordCost = 8

// HashPassword returns a salted bcrypt hash of the plaintext.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return string(bytes), err
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
