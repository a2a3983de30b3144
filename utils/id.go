package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateRandomID returns n random bytes hex-encoded (2n characters).
func GenerateRandomID(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid id length %d", n)
	}
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateSessionID returns a 256-bit session identifier.
func GenerateSessionID() (string, error) {
	return GenerateRandomID(32)
}
