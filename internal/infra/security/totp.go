package security

import (
	"time"

	"github.com/xlzd/gotp"

	"github.com/arklim/social-platform-commerce/internal/core/port"
)

const totpSecretLength = 32

// TOTPProvider issues and verifies RFC 6238 time-based one-time passwords.
type TOTPProvider struct {
	issuer string
}

var _ port.TOTPProvider = (*TOTPProvider)(nil)

// NewTOTPProvider constructs a provider stamping the given issuer into
// provisioning URIs.
func NewTOTPProvider(issuer string) *TOTPProvider {
	return &TOTPProvider{issuer: issuer}
}

// GenerateSecret returns a fresh random base32 secret.
func (p *TOTPProvider) GenerateSecret() string {
	return gotp.RandomSecret(totpSecretLength)
}

// ProvisioningURI builds the otpauth:// URI consumed by authenticator apps.
func (p *TOTPProvider) ProvisioningURI(secret, accountName string) string {
	return gotp.NewDefaultTOTP(secret).ProvisioningUri(accountName, p.issuer)
}

// VerifyCode checks a 6-digit code against the secret for the current window.
func (p *TOTPProvider) VerifyCode(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	return gotp.NewDefaultTOTP(secret).Verify(code, time.Now().Unix())
}
