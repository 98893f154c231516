package db

import (
	"crypto/rand"
	"fmt"

	"carmarket/internal/constants"
)

// GenerateID returns a prefixed random identifier, e.g. "usr_3f9c...".
// The prefix makes row types distinguishable in logs and URLs.
func GenerateID(prefix string) (string, error) {
	buf := make([]byte, constants.IDRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return fmt.Sprintf("%s_%x", prefix, buf), nil
}
