package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carmarket/internal/models"
)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(userID, tokenHash string, isAdmin bool, expiresAt time.Time) (*models.Session, error) {
	id, err := GenerateID("ses")
	if err != nil {
		return nil, fmt.Errorf("generating session ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO sessions (id, user_id, token_hash, is_admin, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, tokenHash, isAdmin, expiresAt.UTC(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &models.Session{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		IsAdmin:   isAdmin,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	}, nil
}

// FindValidByTokenHash resolves an unexpired session. Expired rows are
// invisible here even before the cleanup sweep removes them.
func (r *SessionRepository) FindValidByTokenHash(tokenHash string) (*models.Session, error) {
	var s models.Session

	err := r.db.QueryRow(
		`SELECT id, user_id, token_hash, is_admin, expires_at, created_at
		   FROM sessions
		  WHERE token_hash = ? AND expires_at > ?`,
		tokenHash, time.Now().UTC(),
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.IsAdmin, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	return &s, nil
}

func (r *SessionRepository) DeleteByTokenHash(tokenHash string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *SessionRepository) DeleteAllForUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	return result.RowsAffected()
}
