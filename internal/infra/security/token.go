package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// GenerateNumericCode returns length random decimal digits, used for
// email verification and password reset codes.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	digits := make([]byte, length)
	for i, b := range buf {
		digits[i] = '0' + (b % 10)
	}

	return string(digits), nil
}

// GenerateSecureToken returns byteLength random bytes encoded as
// unpadded URL-safe base64.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", errors.New("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 of value. Only token hashes are stored;
// the plaintext token is handed to the client once.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// TokenGenerator pairs a signing key provider with the key ID advertised
// in issued token headers.
type TokenGenerator struct {
	keyProvider KeyProvider
	kid         string
}

func NewTokenGenerator(keyProvider KeyProvider, kid string) (*TokenGenerator, error) {
	return &TokenGenerator{
		keyProvider: keyProvider,
		kid:         kid,
	}, nil
}

// GetKID returns the key ID used for signing.
func (t *TokenGenerator) GetKID() string {
	return t.kid
}
