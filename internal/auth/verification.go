package auth

import (
	"time"

	"github.com/google/uuid"
)

// VerificationService issues single-use email verification tokens. The
// token/expiration pair is stored on the account by the caller; an expired
// token stays in place and is rejected when presented.
type VerificationService struct {
	ttl time.Duration
}

func NewVerificationService(ttl time.Duration) *VerificationService {
	return &VerificationService{ttl: ttl}
}

// Issue returns a fresh opaque token and its expiration time.
func (s *VerificationService) Issue() (string, time.Time) {
	return uuid.NewString(), time.Now().Add(s.ttl).UTC()
}

func (s *VerificationService) IsExpired(expiresAt time.Time) bool {
	return time.Now().After(expiresAt)
}
