package db

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultCleanupInterval = 1 * time.Hour
)

// CleanupService periodically deletes expired session rows. Session
// resolution already filters on expiry, so this only reclaims space.
type CleanupService struct {
	sessions *SessionRepository
	interval time.Duration
}

func NewCleanupService(sessions *SessionRepository) *CleanupService {
	return &CleanupService{
		sessions: sessions,
		interval: DefaultCleanupInterval,
	}
}

func (s *CleanupService) Start(ctx context.Context) {
	slog.Info("starting session cleanup service", "component", "cleanup", "interval", s.interval)

	s.runCleanup()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup service", "component", "cleanup")
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

func (s *CleanupService) runCleanup() {
	deleted, err := s.sessions.DeleteExpired()
	if err != nil {
		slog.Error("error deleting expired sessions", "component", "cleanup", "error", err)
	} else if deleted > 0 {
		slog.Info("deleted expired sessions", "component", "cleanup", "count", deleted)
	}
}
