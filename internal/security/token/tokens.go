package token

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOpaque returns a random opaque token (base64url, no padding).
// Used for OAuth state values; callers pass at least 32 bytes of entropy.
func GenerateOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
