package security

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
)

// ErrKeyIDMissing indicates no kid is associated with the supplied key.
var ErrKeyIDMissing = errors.New("jwt: missing key identifier")

// JWTManager publishes the verification keys for issued access tokens as a
// JWKS document. Signing itself happens in the auth service against the
// KeyProvider; this type only owns the public half.
type JWTManager struct {
	KeyProvider KeyProvider
	mu          sync.RWMutex
	publicKeys  map[string]*rsa.PublicKey
}

// NewJWTManager constructs a JWTManager and preloads every verification key
// the provider can enumerate.
func NewJWTManager(provider KeyProvider) *JWTManager {
	mgr := &JWTManager{
		KeyProvider: provider,
		publicKeys:  make(map[string]*rsa.PublicKey),
	}

	if enumerator, ok := provider.(interface {
		ListVerificationKeys() map[string]*rsa.PublicKey
	}); ok {
		for kid, key := range enumerator.ListVerificationKeys() {
			_ = mgr.RegisterPublicKey(kid, key)
		}
	}

	return mgr
}

// RegisterPublicKey adds a kid to the published key set. Rotated-in keys are
// registered here so clients can verify tokens signed before the rotation.
func (m *JWTManager) RegisterPublicKey(kid string, key *rsa.PublicKey) error {
	kid = strings.TrimSpace(kid)
	if kid == "" {
		return ErrKeyIDMissing
	}
	if key == nil {
		return fmt.Errorf("jwt: public key for %s is nil", kid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.publicKeys[kid] = key
	return nil
}

// JWKS renders the registered keys as a JSON Web Key Set document.
func (m *JWTManager) JWKS() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]map[string]string, 0, len(m.publicKeys))
	for kid, key := range m.publicKeys {
		if key == nil {
			continue
		}
		keys = append(keys, map[string]string{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": kid,
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		})
	}

	return json.Marshal(map[string]any{"keys": keys})
}
