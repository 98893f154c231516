package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
email:
  smtp:
    host: smtp.example.com
    port: 587
    from: noreply@example.com
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.VerificationTokenTTL != 7*24*time.Hour {
		t.Errorf("VerificationTokenTTL = %v, want 168h", cfg.Auth.VerificationTokenTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.LoginIdentifier != LoginByUserName {
		t.Errorf("LoginIdentifier = %q, want %q", cfg.Auth.LoginIdentifier, LoginByUserName)
	}
	if cfg.Server.BaseURL != "http://0.0.0.0:8080" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
}

func TestLoadParsesValues(t *testing.T) {
	content := `
server:
  host: 127.0.0.1
  port: 9090
  base_url: https://cars.example.com
database:
  path: /var/lib/carmarket/app.db
auth:
  session_ttl: 1h
  login_identifier: email
email:
  smtp:
    host: smtp.example.com
    port: 465
    from: noreply@example.com
`
	cfg, err := Load(writeConfigFile(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Auth.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.LoginIdentifier != LoginByEmail {
		t.Errorf("LoginIdentifier = %q, want %q", cfg.Auth.LoginIdentifier, LoginByEmail)
	}
	if cfg.Server.BaseURL != "https://cars.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
}

func TestLoadRejectsMissingSMTP(t *testing.T) {
	if _, err := Load(writeConfigFile(t, `server: {port: 8080}`)); err == nil {
		t.Fatal("Load() accepted config without SMTP settings")
	}
}

func TestLoadRejectsBadLoginIdentifier(t *testing.T) {
	content := minimalConfig + `
auth:
  login_identifier: phone
`
	if _, err := Load(writeConfigFile(t, content)); err == nil {
		t.Fatal("Load() accepted invalid login_identifier")
	}
}

func TestSMTPPasswordEnvOverride(t *testing.T) {
	t.Setenv("CARMARKET_SMTP_PASSWORD", "from-env")

	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Email.SMTP.Password != "from-env" {
		t.Errorf("SMTP.Password = %q, want env override", cfg.Email.SMTP.Password)
	}
}
