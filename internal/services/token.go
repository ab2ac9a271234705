package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of a reactivation token; its hex form is twice as long.
const TokenBytes = 24

// NewToken returns 24 cryptographically random bytes as lowercase hex.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// validTokenFormat reports whether s looks like a token produced by NewToken.
func validTokenFormat(s string) bool {
	if len(s) != 2*TokenBytes {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
