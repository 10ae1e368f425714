package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrKeyNotFound indicates no key is registered under the requested kid.
var ErrKeyNotFound = errors.New("key not found")

// KeyProvider supplies the RS256 key material for access tokens.
type KeyProvider interface {
	GetSigningKey() (*rsa.PrivateKey, error)
	GetVerificationKey(kid string) (*rsa.PublicKey, error)
}

// DevKeyProvider loads PEM key files from a directory. Each file becomes a
// verification key under its basename as kid; the first private key found
// signs. Production mounts the key directory from a secret, so the same
// loader serves every environment.
type DevKeyProvider struct {
	keys       map[string]*rsa.PublicKey
	signingKey *rsa.PrivateKey
}

// NewDevKeyProvider reads every PEM file in keyDir.
func NewDevKeyProvider(keyDir string) (*DevKeyProvider, error) {
	files, err := os.ReadDir(keyDir)
	if err != nil {
		return nil, fmt.Errorf("read key directory: %w", err)
	}

	provider := &DevKeyProvider{
		keys: make(map[string]*rsa.PublicKey),
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		path := filepath.Join(keyDir, file.Name())
		keyData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key file %s: %w", path, err)
		}

		kid := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		if err := provider.addKey(kid, keyData); err != nil {
			return nil, fmt.Errorf("parse key file %s: %w", path, err)
		}
	}

	if provider.signingKey == nil {
		return nil, errors.New("no private key found for signing")
	}

	return provider, nil
}

func (p *DevKeyProvider) addKey(kid string, keyData []byte) error {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return errors.New("no PEM block")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		p.registerPrivate(kid, key)
		return nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			p.registerPrivate(kid, rsaKey)
			return nil
		}
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		p.keys[kid] = key
		return nil
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			p.keys[kid] = rsaKey
			return nil
		}
	}

	return errors.New("unsupported key format")
}

func (p *DevKeyProvider) registerPrivate(kid string, key *rsa.PrivateKey) {
	if p.signingKey == nil {
		p.signingKey = key
	}
	p.keys[kid] = &key.PublicKey
}

// GetSigningKey returns the private key used to sign access tokens.
func (p *DevKeyProvider) GetSigningKey() (*rsa.PrivateKey, error) {
	return p.signingKey, nil
}

// GetVerificationKey returns the public key registered under kid.
func (p *DevKeyProvider) GetVerificationKey(kid string) (*rsa.PublicKey, error) {
	key, ok := p.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return key, nil
}

// ListVerificationKeys exposes all loaded public keys for JWKS publication.
func (p *DevKeyProvider) ListVerificationKeys() map[string]*rsa.PublicKey {
	out := make(map[string]*rsa.PublicKey, len(p.keys))
	for kid, key := range p.keys {
		out[kid] = key
	}
	return out
}

// NewKeyProvider builds the provider for the environment. All environments
// read PEM keys from keyDir; production mounts it from the secret store.
func NewKeyProvider(env, keyDir string) (KeyProvider, error) {
	switch env {
	case "development", "test", "staging", "production":
		return NewDevKeyProvider(keyDir)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}
}
