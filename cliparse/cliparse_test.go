// cliparse/cliparse_test.go
package cliparse

import (
	"testing"
	"time"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("ADMIN_USERNAME", "warden")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setSecrets(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SETTINGS_POLL_INTERVAL", "30s")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.SettingsPollInterval != 30*time.Second {
		t.Errorf("expected 30s poll interval, got %v", cfg.SettingsPollInterval)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setSecrets(t)
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("SETTINGS_POLL_INTERVAL", "")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" || cfg.DatabaseURL != "file:messvote.db" {
		t.Errorf("unexpected database defaults: %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("expected uploads dir, got %s", cfg.UploadDir)
	}
	if cfg.SettingsPollInterval != 2*time.Minute {
		t.Errorf("expected 2m poll interval, got %v", cfg.SettingsPollInterval)
	}
	if cfg.Location != time.Local {
		t.Errorf("expected local zone, got %v", cfg.Location)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setSecrets(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-token-secret", "cli-secret"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.TokenSecret != "cli-secret" {
		t.Errorf("CLI should override env: expected cli-secret, got %s", cfg.TokenSecret)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing token secret", map[string]string{"TOKEN_SECRET": ""}, nil},
		{"missing admin password", map[string]string{"ADMIN_PASSWORD": ""}, nil},
		{"bad port", map[string]string{"PORT": "abc"}, nil},
		{"bad database type", map[string]string{"DATABASE_TYPE": "mysql"}, nil},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, nil},
		{"bad poll interval", map[string]string{"SETTINGS_POLL_INTERVAL": "soon"}, nil},
		{"unknown flag", nil, []string{"-x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSecrets(t)
			t.Setenv("PORT", "")
			t.Setenv("DATABASE_TYPE", "")
			t.Setenv("TIMEZONE", "")
			t.Setenv("SETTINGS_POLL_INTERVAL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFlags_Timezone(t *testing.T) {
	setSecrets(t)
	t.Setenv("TIMEZONE", "Asia/Kolkata")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("expected Asia/Kolkata, got %s", cfg.Location)
	}
}
