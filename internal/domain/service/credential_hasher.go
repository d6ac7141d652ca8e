package service

// CredentialHasher hashes plaintext secrets one way and verifies them later.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	// Verify reports whether plain matches hash. A mismatch is not an error.
	Verify(plain, hash string) bool
}
