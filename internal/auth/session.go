package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"carmarket/internal/constants"
)

// SessionService generates and hashes the opaque tokens handed to clients.
// Only the sha256 hash is persisted; the raw token exists in the cookie and
// nowhere else.
type SessionService struct {
	ttl time.Duration
}

func NewSessionService(ttl time.Duration) *SessionService {
	return &SessionService{ttl: ttl}
}

func (s *SessionService) GenerateToken() (string, error) {
	b := make([]byte, constants.SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ExpiresAt returns the fixed expiry for a session created now.
func (s *SessionService) ExpiresAt() time.Time {
	return time.Now().Add(s.ttl).UTC()
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
