package auth

import (
	"testing"
	"time"
)

func TestVerificationIssueTokensAreUnique(t *testing.T) {
	svc := NewVerificationService(7 * 24 * time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, _ := svc.Issue()
		if token == "" {
			t.Fatal("Issue() returned an empty token")
		}
		if seen[token] {
			t.Fatalf("Issue() returned duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestVerificationIssueExpiration(t *testing.T) {
	ttl := 7 * 24 * time.Hour
	svc := NewVerificationService(ttl)

	before := time.Now()
	_, expiresAt := svc.Issue()
	after := time.Now()

	if expiresAt.Before(before.Add(ttl)) || expiresAt.After(after.Add(ttl)) {
		t.Fatalf("expiresAt = %v, want issuance time + %v", expiresAt, ttl)
	}
}

func TestVerificationIsExpired(t *testing.T) {
	svc := NewVerificationService(7 * 24 * time.Hour)

	if svc.IsExpired(time.Now().Add(time.Hour)) {
		t.Fatal("IsExpired() = true for a future expiration")
	}
	if !svc.IsExpired(time.Now().Add(-time.Second)) {
		t.Fatal("IsExpired() = false for a past expiration")
	}
}
