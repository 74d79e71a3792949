package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `json:"server"`
	Database      DatabaseConfig      `json:"database"`
	Logging       LoggingConfig       `json:"logging"`
	Session       SessionConfig       `json:"session"`
	Notifications NotificationsConfig `json:"notifications"`
	Pprof         PprofConfig         `json:"pprof,omitempty"`
}

// PprofConfig controls the optional profiling listener.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`  // default: "127.0.0.1:6060"
	Token   string `json:"token,omitempty"` // required for non-loopback binds
}

type ServerConfig struct {
	Addr string `json:"addr,omitempty"` // default: ":8080"

	// Server timeouts (Go duration strings).
	ReadTimeout     string `json:"read_timeout,omitempty"`     // default: "10s"
	WriteTimeout    string `json:"write_timeout,omitempty"`    // default: "0s" (WebSocket connections are long-lived)
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"` // default: "5s"
}

type DatabaseConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"` // trace|debug|info|warn|error
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// SessionConfig controls cookie sessions.
//
// Secret should NOT live in the config file for real deployments; leave it
// empty and set SESSION_SECRET in the environment (or a .env file) instead.
type SessionConfig struct {
	Secret       string `json:"secret,omitempty"`
	TTL          string `json:"ttl,omitempty"` // default: "168h" (one week)
	CookieSecure bool   `json:"cookie_secure,omitempty"`
}

// NotificationsConfig controls the scheduling engine.
type NotificationsConfig struct {
	// LeadMinutes is how long before an entry's start time its notification
	// fires. 0 means use the default (10).
	LeadMinutes int `json:"lead_minutes,omitempty"`

	// Timezone is the IANA zone the planner interprets dates/times in.
	// Empty means server-local time.
	Timezone string `json:"timezone,omitempty"`
}

const DefaultLeadMinutes = 10

// Validate checks cross-field constraints that the strict decoder can't.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	if c.Notifications.LeadMinutes < 0 {
		return errors.New("notifications.lead_minutes must be >= 0")
	}
	if tz := strings.TrimSpace(c.Notifications.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("notifications.timezone: %w", err)
		}
	}
	for _, f := range []struct{ path, raw string }{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"database.busy_timeout", c.Database.BusyTimeout},
		{"session.ttl", c.Session.TTL},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Lead() time.Duration {
	m := c.Notifications.LeadMinutes
	if m <= 0 {
		m = DefaultLeadMinutes
	}
	return time.Duration(m) * time.Minute
}

func (c *Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Notifications.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) ServerAddr() string {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// SessionSecret resolves the session secret: env wins over file.
func (c *Config) SessionSecret() string {
	if s := strings.TrimSpace(os.Getenv("SESSION_SECRET")); s != "" {
		return s
	}
	return strings.TrimSpace(c.Session.Secret)
}

func (c *Config) SessionTTL() time.Duration {
	d, err := ParseDurationOrDefault("session.ttl", c.Session.TTL, 7*24*time.Hour)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}
