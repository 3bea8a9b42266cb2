// Package utils holds helpers shared by the session and OAuth flows.
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSize is the entropy in bytes of session ids, OAuth states and PKCE
// verifiers.
const TokenSize = 32

// RandomToken returns n bytes from crypto/rand as unpadded base64url, which
// is safe in cookies and query strings without escaping.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("utils: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
