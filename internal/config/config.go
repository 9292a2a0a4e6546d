// Package config resolves MariaDB connection settings from the process
// environment, with an optional TOML file merged underneath. Environment
// values always win over file values; both win over the built-in defaults.
package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
)

// Settings is an immutable snapshot of the connection parameters in effect
// at a point in time. A new snapshot replaces the old one wholesale on
// reload; concurrent readers never observe a partial update.
type Settings struct {
	Host     string `toml:"host" env:"MARIADB_HOST"`
	Port     int    `toml:"port" env:"MARIADB_PORT"`
	User     string `toml:"user" env:"MARIADB_USER"`
	Password string `toml:"password" env:"MARIADB_PASSWORD"`
	Database string `toml:"database" env:"MARIADB_DATABASE"`

	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	AuditPath string `toml:"audit_path" env:"AUDIT_PATH"`
}

// Addr returns host:port for logging and error messages.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func Defaults() Settings {
	return Settings{
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "",
		Database: "mysql",
		LogLevel: "info",
	}
}

// Load resolves a Settings snapshot: defaults, then the TOML file at path
// (if any), then environment variables. A missing file is tolerated; a
// malformed file or a non-numeric MARIADB_PORT is a *ConfigError.
func Load(path string) (Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Settings{}, &ConfigError{Key: "config_file", Cause: err}
		}
		if err == nil {
			if err := toml.Unmarshal(data, &s); err != nil {
				return Settings{}, &ConfigError{Key: "config_file", Cause: err}
			}
		}
	}

	if err := env.Parse(&s); err != nil {
		return Settings{}, &ConfigError{Key: "environment", Cause: err}
	}

	if s.Port < 1 || s.Port > 65535 {
		return Settings{}, &ConfigError{
			Key:   "MARIADB_PORT",
			Cause: fmt.Errorf("port %d out of range 1-65535", s.Port),
		}
	}

	return s, nil
}

// Holder owns the current Settings snapshot. Reload swaps the snapshot
// atomically and does not touch any connection state; propagating a new
// configuration to the pool is the gateway's job.
type Holder struct {
	path string
	cur  atomic.Pointer[Settings]
}

func NewHolder(path string) (*Holder, error) {
	h := &Holder{path: path}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Snapshot returns the Settings currently in effect.
func (h *Holder) Snapshot() Settings {
	return *h.cur.Load()
}

// Reload re-runs the full resolution (file + environment) and replaces the
// snapshot. On error the previous snapshot stays in effect.
func (h *Holder) Reload() error {
	s, err := Load(h.path)
	if err != nil {
		return err
	}
	h.cur.Store(&s)
	return nil
}
