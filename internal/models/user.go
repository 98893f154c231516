package models

import "time"

const (
	AuthMethodLocal  = "local"
	AuthMethodGoogle = "google"
)

// User is the full account record as stored. Secret fields never leave the
// server; responses use PublicUser.
type User struct {
	ID                     string
	UserName               string
	Email                  string
	AuthMethod             string
	PasswordHash           *string
	GoogleID               *string
	AccessToken            *string
	IsAdmin                bool
	IsVerified             bool
	EmailVerificationToken *string
	TokenExpiration        *time.Time
	CreatedAt              time.Time
	UpdatedAt              *time.Time
}

// PublicUser is the projection returned by the API.
type PublicUser struct {
	ID         string     `json:"id"`
	UserName   string     `json:"userName"`
	Email      string     `json:"email"`
	AuthMethod string     `json:"authMethod"`
	IsAdmin    bool       `json:"isAdmin"`
	IsVerified bool       `json:"isVerified"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		UserName:   u.UserName,
		Email:      u.Email,
		AuthMethod: u.AuthMethod,
		IsAdmin:    u.IsAdmin,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// Session ties a hashed opaque token to an account. IsAdmin is a snapshot
// taken when the session is created.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	IsAdmin   bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
