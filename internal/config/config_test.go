package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() with missing file = %v, want defaults", err)
	}

	if cfg.Server.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.Server.APIPort)
	}
	if cfg.Server.RateLimitQPS != 10 {
		t.Errorf("RateLimitQPS = %d, want 10", cfg.Server.RateLimitQPS)
	}
	if cfg.Prefetch.BatchSize != 5 || cfg.Prefetch.BatchDelayMS != 150 {
		t.Errorf("Prefetch = %+v, want defaults 5/150", cfg.Prefetch)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[data]
message_db = "/tmp/chat.db"
contact_db = "/tmp/addressbook.abcddb"

[server]
api_port = 9090
refresh_schedule = "0 */6 * * *"

[prefetch]
batch_size = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.Data.MessageDB != "/tmp/chat.db" {
		t.Errorf("MessageDB = %q", cfg.Data.MessageDB)
	}
	if cfg.Server.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.Server.APIPort)
	}
	if cfg.Server.RefreshSchedule != "0 */6 * * *" {
		t.Errorf("RefreshSchedule = %q", cfg.Server.RefreshSchedule)
	}
	// Unset values keep their defaults.
	if cfg.Prefetch.BatchDelayMS != 150 {
		t.Errorf("BatchDelayMS = %d, want default 150", cfg.Prefetch.BatchDelayMS)
	}
	if cfg.Prefetch.BatchSize != 3 {
		t.Errorf("BatchSize = %d, want 3", cfg.Prefetch.BatchSize)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not valid toml ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with malformed file = nil, want error")
	}
}

func TestDefaultHomeEnvOverride(t *testing.T) {
	t.Setenv("CHATVAULT_HOME", "/custom/home")

	if got := DefaultHome(); got != "/custom/home" {
		t.Errorf("DefaultHome() = %q, want env override", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	if got := expandPath("~/chat.db"); got != filepath.Join(home, "chat.db") {
		t.Errorf("expandPath(~/chat.db) = %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q", got)
	}
}
