package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"carmarket/internal/auth"
	"carmarket/internal/config"
	"carmarket/internal/constants"
	"carmarket/internal/db"
	"carmarket/internal/models"
)

// EmailSender dispatches verification mail. Satisfied by email.SMTPService;
// tests inject a fake.
type EmailSender interface {
	SendVerificationEmail(to, token string) error
}

type AuthHandler struct {
	users           *db.UserRepository
	sessions        *db.SessionRepository
	passwords       *auth.PasswordService
	verification    *auth.VerificationService
	sessionService  *auth.SessionService
	emailService    EmailSender
	loginIdentifier string
}

func NewAuthHandler(
	users *db.UserRepository,
	sessions *db.SessionRepository,
	passwords *auth.PasswordService,
	verification *auth.VerificationService,
	sessionService *auth.SessionService,
	emailService EmailSender,
	loginIdentifier string,
) *AuthHandler {
	return &AuthHandler{
		users:           users,
		sessions:        sessions,
		passwords:       passwords,
		verification:    verification,
		sessionService:  sessionService,
		emailService:    emailService,
		loginIdentifier: loginIdentifier,
	}
}

type RegisterRequest struct {
	UserName    string `json:"userName" validate:"required,min=3,max=32"`
	Password    string `json:"password" validate:"omitempty,min=6,max=72"`
	Email       string `json:"email" validate:"required,email,max=254"`
	AuthMethod  string `json:"authMethod" validate:"required,oneof=local google"`
	GoogleID    string `json:"googleId" validate:"omitempty,max=255"`
	AccessToken string `json:"accessToken" validate:"omitempty,max=2048"`
}

type RegisterResponse struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

// POST /api/v1/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var fieldErrs []string
	switch req.AuthMethod {
	case models.AuthMethodLocal:
		if req.Password == "" {
			fieldErrs = append(fieldErrs, "password is required for local accounts")
		}
	case models.AuthMethodGoogle:
		if req.GoogleID == "" {
			fieldErrs = append(fieldErrs, "googleId is required for google accounts")
		}
		if req.AccessToken == "" {
			fieldErrs = append(fieldErrs, "accessToken is required for google accounts")
		}
	}
	if len(fieldErrs) > 0 {
		validationFailed(w, fieldErrs)
		return
	}

	exists, err := h.users.ExistsByUserNameOrEmail(req.UserName, req.Email)
	if err != nil {
		slog.Error("error checking existing user", "error", err)
		internalError(w)
		return
	}
	if exists {
		badRequest(w, "Username or email already taken")
		return
	}

	params := db.CreateUserParams{
		UserName:   req.UserName,
		Email:      req.Email,
		AuthMethod: req.AuthMethod,
	}
	if req.AuthMethod == models.AuthMethodLocal {
		hash, err := h.passwords.Hash(req.Password)
		if err != nil {
			slog.Error("error hashing password", "error", err)
			internalError(w)
			return
		}
		params.PasswordHash = &hash
	} else {
		params.GoogleID = &req.GoogleID
		params.AccessToken = &req.AccessToken
	}

	token, expiresAt := h.verification.Issue()
	params.EmailVerificationToken = token
	params.TokenExpiration = expiresAt

	user, err := h.users.Create(params)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			badRequest(w, "Username or email already taken")
			return
		}
		slog.Error("error creating user", "error", err)
		internalError(w)
		return
	}

	if err := h.establishSession(w, user.ID, user.IsAdmin); err != nil {
		slog.Error("error creating session", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	if err := h.emailService.SendVerificationEmail(user.Email, token); err != nil {
		slog.Error("error sending verification email", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		ID:       user.ID,
		UserName: user.UserName,
		Email:    user.Email,
	})
}

type LoginRequest struct {
	UserName string `json:"userName" validate:"omitempty,max=254"`
	Email    string `json:"email" validate:"omitempty,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	var identifier string
	var lookup func(string) (*models.User, error)
	if h.loginIdentifier == config.LoginByEmail {
		identifier = strings.ToLower(strings.TrimSpace(req.Email))
		lookup = h.users.FindByEmail
	} else {
		identifier = strings.TrimSpace(req.UserName)
		lookup = h.users.FindByUserName
	}
	if identifier == "" {
		badRequest(w, "Missing required login field")
		return
	}

	user, err := lookup(identifier)
	if errors.Is(err, db.ErrNotFound) {
		badRequest(w, "Invalid credentials")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w)
		return
	}

	if user.PasswordHash == nil || !h.passwords.Verify(req.Password, *user.PasswordHash) {
		badRequest(w, "Invalid credentials")
		return
	}

	if err := h.establishSession(w, user.ID, user.IsAdmin); err != nil {
		slog.Error("error creating session", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// POST /api/v1/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		badRequest(w, "No active session to log out from")
		return
	}

	err = h.sessions.DeleteByTokenHash(auth.HashSessionToken(cookie.Value))
	if errors.Is(err, db.ErrNotFound) {
		clearSessionCookie(w)
		badRequest(w, "No active session to log out from")
		return
	}
	if err != nil {
		slog.Error("error destroying session", "error", err)
		internalError(w)
		return
	}

	clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "User logged out successfully")
}

// GET /api/v1/verify/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := h.users.FindByVerificationToken(token)
	if errors.Is(err, db.ErrNotFound) {
		badRequest(w, "Invalid or expired token")
		return
	}
	if err != nil {
		slog.Error("error finding user by token", "error", err)
		internalError(w)
		return
	}

	// The expired token stays stored; only a fresh reissue replaces it.
	if user.TokenExpiration != nil && h.verification.IsExpired(*user.TokenExpiration) {
		badRequest(w, "Token expired")
		return
	}

	err = h.users.ConsumeVerificationToken(token)
	if errors.Is(err, db.ErrNotFound) {
		badRequest(w, "Invalid or expired token")
		return
	}
	if err != nil {
		slog.Error("error consuming verification token", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Email verified successfully")
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// POST /api/v1/requestNewVerificationEmail
func (h *AuthHandler) RequestNewVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.FindByEmail(req.Email)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w)
		return
	}

	token, expiresAt := h.verification.Issue()
	if err := h.users.SetVerificationToken(user.ID, token, expiresAt); err != nil {
		slog.Error("error storing verification token", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	if err := h.emailService.SendVerificationEmail(user.Email, token); err != nil {
		slog.Error("error sending verification email", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "New verification email sent. Please check your inbox.")
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// PUT /api/v1/resetPassword/{id}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.users.FindByID(id)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w)
		return
	}

	if !user.IsVerified {
		badRequest(w, "Email not verified")
		return
	}

	hash, err := h.passwords.Hash(req.NewPassword)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		internalError(w)
		return
	}

	if err := h.users.UpdatePassword(user.ID, hash); err != nil {
		slog.Error("error updating password", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Password reset successfully")
}

type ResetEmailRequest struct {
	NewEmail string `json:"newEmail" validate:"required,email,max=254"`
}

// PUT /api/v1/resetEmail/{id}
func (h *AuthHandler) ResetEmail(w http.ResponseWriter, r *http.Request) {
	var req ResetEmailRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	newEmail := strings.ToLower(strings.TrimSpace(req.NewEmail))

	user, err := h.users.FindByID(id)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w)
		return
	}

	taken, err := h.users.EmailTaken(newEmail)
	if err != nil {
		slog.Error("error checking email availability", "error", err)
		internalError(w)
		return
	}
	if taken && newEmail != user.Email {
		badRequest(w, "Email already taken")
		return
	}

	token, expiresAt := h.verification.Issue()
	err = h.users.UpdateEmailUnverified(user.ID, newEmail, token, expiresAt)
	if errors.Is(err, db.ErrDuplicate) {
		badRequest(w, "Email already taken")
		return
	}
	if err != nil {
		slog.Error("error updating email", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	if err := h.emailService.SendVerificationEmail(newEmail, token); err != nil {
		slog.Error("error sending verification email", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Verification email sent. Please verify your new email.")
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, userID string, isAdmin bool) error {
	token, err := h.sessionService.GenerateToken()
	if err != nil {
		return err
	}

	if _, err := h.sessions.Create(userID, auth.HashSessionToken(token), isAdmin, h.sessionService.ExpiresAt()); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionService.TTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
