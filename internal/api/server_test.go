package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"carmarket/internal/config"
	"carmarket/internal/constants"
	"carmarket/internal/db"
)

type sentEmail struct {
	To    string
	Token string
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmailService) SendVerificationEmail(to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{To: to, Token: token})
	return nil
}

func (f *fakeEmailService) lastSent(t *testing.T) sentEmail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no verification email was sent")
	}
	return f.sent[len(f.sent)-1]
}

func newTestServer(t *testing.T) (*Server, *db.DB, *fakeEmailService) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://localhost:8080"
	cfg.Auth.SessionTTL = 24 * time.Hour
	cfg.Auth.VerificationTokenTTL = 7 * 24 * time.Hour
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.LoginIdentifier = config.LoginByUserName

	emails := &fakeEmailService{}
	server, err := NewServer(cfg, database, emails)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	return server, database, emails
}

func doRequest(server *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == constants.SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response, headers=%v", rr.Header())
	return nil
}

func registerTestUser(t *testing.T, server *Server, userName, email, password string) (string, *http.Cookie) {
	t.Helper()

	body := fmt.Sprintf(`{"userName":%q,"password":%q,"email":%q,"authMethod":"local"}`, userName, password, email)
	rr := doRequest(server, http.MethodPost, "/api/v1/register", body, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d, body=%q", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp RegisterResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if resp.ID == "" {
		t.Fatalf("register response has no id, body=%q", rr.Body.String())
	}

	return resp.ID, sessionCookie(t, rr)
}

func loginTestUser(t *testing.T, server *Server, userName, password string) *http.Cookie {
	t.Helper()

	body := fmt.Sprintf(`{"userName":%q,"password":%q}`, userName, password)
	rr := doRequest(server, http.MethodPost, "/api/v1/login", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d, body=%q", rr.Code, http.StatusOK, rr.Body.String())
	}

	return sessionCookie(t, rr)
}

func makeAdmin(t *testing.T, database *db.DB, userID string) {
	t.Helper()

	if _, err := database.Exec(`UPDATE users SET is_admin = 1 WHERE id = ?`, userID); err != nil {
		t.Fatalf("promoting user to admin: %v", err)
	}
}

func responseMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp MessageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	return resp.Message
}
