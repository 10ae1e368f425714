package port

// PasswordPolicyValidator enforces password strength requirements.
type PasswordPolicyValidator interface {
	Validate(password string) error
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// TOTPProvider generates authenticator secrets and verifies presented codes.
type TOTPProvider interface {
	GenerateSecret() string
	ProvisioningURI(secret, accountName string) string
	VerifyCode(secret, code string) bool
}
