// Package config handles loading and managing chatvault configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DataConfig holds the archive database locations.
type DataConfig struct {
	MessageDB string `toml:"message_db"` // iMessage chat.db path
	ContactDB string `toml:"contact_db"` // AddressBook database path
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int    `toml:"api_port"`         // HTTP server port (default: 8080)
	APIKey          string `toml:"api_key"`          // API authentication key, empty disables auth
	RateLimitQPS    int    `toml:"rate_limit_qps"`   // per-client request rate (default: 10)
	RefreshSchedule string `toml:"refresh_schedule"` // cron expression for directory refresh
}

// PrefetchConfig tunes the conversation prefetch scheduler.
type PrefetchConfig struct {
	BatchSize    int `toml:"batch_size"`     // concurrent fetches per batch (default: 5)
	BatchDelayMS int `toml:"batch_delay_ms"` // pause between batches (default: 150)
}

type Config struct {
	Data     DataConfig     `toml:"data"`
	Server   ServerConfig   `toml:"server"`
	Prefetch PrefetchConfig `toml:"prefetch"`

	// Computed, not from the config file.
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default chatvault home directory. Respects the
// CHATVAULT_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("CHATVAULT_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatvault"
	}
	return filepath.Join(home, ".chatvault")
}

// Load reads the configuration from the specified file. If path is empty the
// default location (~/.chatvault/config.toml) is used. A missing config file
// is not an error; defaults apply.
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Data: DataConfig{
			MessageDB: defaultMessageDB(),
			ContactDB: defaultContactDB(),
		},
		Server: ServerConfig{
			APIPort:         8080,
			RateLimitQPS:    10,
			RefreshSchedule: "*/30 * * * *",
		},
		Prefetch: PrefetchConfig{
			BatchSize:    5,
			BatchDelayMS: 150,
		},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Data.MessageDB = expandPath(cfg.Data.MessageDB)
	cfg.Data.ContactDB = expandPath(cfg.Data.ContactDB)

	return cfg, nil
}

// defaultMessageDB is the standard macOS chat.db location.
func defaultMessageDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// defaultContactDB picks the first AddressBook source database found under
// the standard macOS location, or empty when none exists.
func defaultContactDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	sources := filepath.Join(home, "Library", "Application Support", "AddressBook", "Sources")
	matches, err := filepath.Glob(filepath.Join(sources, "*", "AddressBook-v22.abcddb"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
