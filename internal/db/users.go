package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carmarket/internal/models"
)

const userColumns = `id, user_name, email, auth_method, password_hash, google_id,
	access_token, is_admin, is_verified, email_verification_token, token_expiration,
	created_at, updated_at`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

type CreateUserParams struct {
	UserName               string
	Email                  string
	AuthMethod             string
	PasswordHash           *string
	GoogleID               *string
	AccessToken            *string
	EmailVerificationToken string
	TokenExpiration        time.Time
}

func (r *UserRepository) Create(p CreateUserParams) (*models.User, error) {
	id, err := GenerateID("usr")
	if err != nil {
		return nil, fmt.Errorf("generating user ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO users (id, user_name, email, auth_method, password_hash, google_id,
		   access_token, is_admin, is_verified, email_verification_token, token_expiration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`,
		id, p.UserName, p.Email, p.AuthMethod, p.PasswordHash, p.GoogleID,
		p.AccessToken, p.EmailVerificationToken, p.TokenExpiration.UTC(), now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token := p.EmailVerificationToken
	expiration := p.TokenExpiration.UTC()
	return &models.User{
		ID:                     id,
		UserName:               p.UserName,
		Email:                  p.Email,
		AuthMethod:             p.AuthMethod,
		PasswordHash:           p.PasswordHash,
		GoogleID:               p.GoogleID,
		AccessToken:            p.AccessToken,
		EmailVerificationToken: &token,
		TokenExpiration:        &expiration,
		CreatedAt:              now,
	}, nil
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) FindByUserName(userName string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE user_name = ?`, userName)
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) FindByVerificationToken(token string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE email_verification_token = ?`, token)
}

func (r *UserRepository) FindAll() ([]*models.User, error) {
	rows, err := r.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY user_name`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// ExistsByUserNameOrEmail reports whether either identity key is taken.
func (r *UserRepository) ExistsByUserNameOrEmail(userName, email string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE user_name = ? OR email = ?`,
		userName, email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) EmailTaken(email string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking email availability: %w", err)
	}
	return count > 0, nil
}

// ConsumeVerificationToken marks the matching account verified and clears the
// token pair in one statement, so a token can only ever be consumed once.
func (r *UserRepository) ConsumeVerificationToken(token string) error {
	result, err := r.db.Exec(
		`UPDATE users
		    SET is_verified = 1,
		        email_verification_token = NULL,
		        token_expiration = NULL,
		        updated_at = ?
		  WHERE email_verification_token = ?`,
		time.Now().UTC(), token,
	)
	if err != nil {
		return fmt.Errorf("consuming verification token: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) SetVerificationToken(id, token string, expiresAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE users SET email_verification_token = ?, token_expiration = ?, updated_at = ? WHERE id = ?`,
		token, expiresAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting verification token: %w", err)
	}
	return checkRowsAffected(result)
}

// UpdateEmailUnverified swaps the address, drops verified status, and stores a
// fresh verification token in a single statement.
func (r *UserRepository) UpdateEmailUnverified(id, newEmail, token string, expiresAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE users
		    SET email = ?,
		        is_verified = 0,
		        email_verification_token = ?,
		        token_expiration = ?,
		        updated_at = ?
		  WHERE id = ?`,
		newEmail, token, expiresAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating email: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdatePassword(id, passwordHash string) error {
	result, err := r.db.Exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdateUserName(id, userName string) error {
	result, err := r.db.Exec(
		`UPDATE users SET user_name = ?, updated_at = ? WHERE id = ?`,
		userName, time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating user name: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) findOne(query string, args ...any) (*models.User, error) {
	row := r.db.QueryRow(query, args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var passwordHash, googleID, accessToken, verificationToken sql.NullString
	var tokenExpiration, updatedAt sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.UserName,
		&u.Email,
		&u.AuthMethod,
		&passwordHash,
		&googleID,
		&accessToken,
		&u.IsAdmin,
		&u.IsVerified,
		&verificationToken,
		&tokenExpiration,
		&u.CreatedAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.PasswordHash = nullStringToPtr(passwordHash)
	u.GoogleID = nullStringToPtr(googleID)
	u.AccessToken = nullStringToPtr(accessToken)
	u.EmailVerificationToken = nullStringToPtr(verificationToken)
	u.TokenExpiration = nullTimeToPtr(tokenExpiration)
	u.UpdatedAt = nullTimeToPtr(updatedAt)

	return &u, nil
}
