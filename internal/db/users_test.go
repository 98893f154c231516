package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func createTestUser(t *testing.T, repo *UserRepository, userName, email string) string {
	t.Helper()

	hash := "$2a$04$notarealhashnotarealhashnotarea"
	user, err := repo.Create(CreateUserParams{
		UserName:               userName,
		Email:                  email,
		AuthMethod:             "local",
		PasswordHash:           &hash,
		EmailVerificationToken: "token-" + userName,
		TokenExpiration:        time.Now().Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return user.ID
}

func TestUserCreateAndFind(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	id := createTestUser(t, repo, "alice", "alice@example.com")

	user, err := repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.UserName != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("user = %q/%q, want alice/alice@example.com", user.UserName, user.Email)
	}
	if user.IsVerified || user.IsAdmin {
		t.Fatal("new user should be unverified and non-admin")
	}
	if user.EmailVerificationToken == nil || user.TokenExpiration == nil {
		t.Fatal("new user should carry a verification token pair")
	}

	if _, err := repo.FindByUserName("alice"); err != nil {
		t.Fatalf("FindByUserName() error = %v", err)
	}
	if _, err := repo.FindByEmail("alice@example.com"); err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	createTestUser(t, repo, "alice", "alice@example.com")

	hash := "$2a$04$notarealhashnotarealhashnotarea"
	_, err := repo.Create(CreateUserParams{
		UserName:               "bob",
		Email:                  "alice@example.com",
		AuthMethod:             "local",
		PasswordHash:           &hash,
		EmailVerificationToken: "token-bob",
		TokenExpiration:        time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create() error = %v, want ErrDuplicate", err)
	}
}

func TestUserExistsByUserNameOrEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	createTestUser(t, repo, "alice", "alice@example.com")

	tests := []struct {
		name     string
		userName string
		email    string
		want     bool
	}{
		{name: "both_free", userName: "bob", email: "bob@example.com", want: false},
		{name: "username_taken", userName: "alice", email: "bob@example.com", want: true},
		{name: "email_taken", userName: "bob", email: "alice@example.com", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ExistsByUserNameOrEmail(tt.userName, tt.email)
			if err != nil {
				t.Fatalf("ExistsByUserNameOrEmail() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ExistsByUserNameOrEmail() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsumeVerificationTokenIsSingleUse(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	id := createTestUser(t, repo, "alice", "alice@example.com")

	if err := repo.ConsumeVerificationToken("token-alice"); err != nil {
		t.Fatalf("ConsumeVerificationToken() error = %v", err)
	}

	user, err := repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !user.IsVerified {
		t.Fatal("user should be verified after consuming the token")
	}
	if user.EmailVerificationToken != nil || user.TokenExpiration != nil {
		t.Fatal("token fields should be cleared after consumption")
	}

	err = repo.ConsumeVerificationToken("token-alice")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("second ConsumeVerificationToken() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateEmailUnverified(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	id := createTestUser(t, repo, "alice", "alice@example.com")
	if err := repo.ConsumeVerificationToken("token-alice"); err != nil {
		t.Fatalf("ConsumeVerificationToken() error = %v", err)
	}

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	if err := repo.UpdateEmailUnverified(id, "new@example.com", "fresh-token", expiresAt); err != nil {
		t.Fatalf("UpdateEmailUnverified() error = %v", err)
	}

	user, err := repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.Email != "new@example.com" {
		t.Fatalf("email = %q, want new@example.com", user.Email)
	}
	if user.IsVerified {
		t.Fatal("user should be unverified after an email change")
	}
	if user.EmailVerificationToken == nil || *user.EmailVerificationToken != "fresh-token" {
		t.Fatal("verification token should be replaced on email change")
	}
}

func TestUpdateEmailUnverifiedDuplicate(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	createTestUser(t, repo, "alice", "alice@example.com")
	id := createTestUser(t, repo, "bob", "bob@example.com")

	err := repo.UpdateEmailUnverified(id, "alice@example.com", "tok", time.Now().Add(time.Hour))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("UpdateEmailUnverified() error = %v, want ErrDuplicate", err)
	}
}

func TestUserDelete(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	id := createTestUser(t, repo, "alice", "alice@example.com")

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.FindByID(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateUserNameNotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	if err := repo.UpdateUserName("usr_missing", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateUserName() error = %v, want ErrNotFound", err)
	}
}
