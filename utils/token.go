package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// ConfirmationTokenBytes is the entropy of a confirmation token (32 hex chars)
	ConfirmationTokenBytes = 16
	// ConfirmationTokenTTL is how long a confirmation token stays valid
	ConfirmationTokenTTL = 24 * time.Hour
)

// GenerateConfirmationToken returns an unguessable fixed-length token and its expiry.
// The token is single-use; consuming it is the confirmation flow's job.
func GenerateConfirmationToken() (string, time.Time, error) {
	buf := make([]byte, ConfirmationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	return hex.EncodeToString(buf), time.Now().Add(ConfirmationTokenTTL), nil
}
