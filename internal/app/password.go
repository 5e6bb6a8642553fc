package app

import "golang.org/x/crypto/bcrypt"

// bcryptCost is the fixed work factor for every persisted credential.
const bcryptCost = 10

// HashPassword derives a salted one-way hash from a plaintext secret. The
// plaintext is never stored or logged.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
