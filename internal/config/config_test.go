package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
server:
  addr: ":9090"
  read_timeout: "20s"
database:
  path: "./planner.db"
logging:
  level: "debug"
  console: true
session:
  ttl: "24h"
notifications:
  lead_minutes: 15
  timezone: "UTC"
`

func TestLoadYAML(t *testing.T) {
	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ServerAddr() != ":9090" {
		t.Errorf("addr = %q", cfg.ServerAddr())
	}
	if cfg.Lead() != 15*time.Minute {
		t.Errorf("lead = %v", cfg.Lead())
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("location = %v", cfg.Location())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("ttl = %v", cfg.SessionTTL())
	}
	if got := m.Get(); got != cfg {
		t.Error("Get did not return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	m := NewManager(writeConfig(t, "config.json", `{"database":{"path":"p.db"}}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Everything else falls back to defaults.
	if cfg.ServerAddr() != ":8080" {
		t.Errorf("addr = %q", cfg.ServerAddr())
	}
	if cfg.Lead() != time.Duration(DefaultLeadMinutes)*time.Minute {
		t.Errorf("lead = %v", cfg.Lead())
	}
	if cfg.SessionTTL() != 7*24*time.Hour {
		t.Errorf("ttl = %v", cfg.SessionTTL())
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	m := NewManager(writeConfig(t, "config.yaml", `
database:
  path: "p.db"
notificatons:
  lead_minutes: 5
`))
	if _, err := m.Load(); err == nil {
		t.Fatal("misspelled section accepted")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing database path", `{"database":{"path":""}}`},
		{"negative lead", `{"database":{"path":"p"},"notifications":{"lead_minutes":-1}}`},
		{"bad timezone", `{"database":{"path":"p"},"notifications":{"timezone":"Mars/Olympus"}}`},
		{"bad duration", `{"database":{"path":"p"},"session":{"ttl":"yesterday"}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(writeConfig(t, "config.json", tc.body))
			if _, err := m.Load(); err == nil {
				t.Fatalf("config %s accepted", tc.body)
			}
		})
	}
}

func TestSessionSecretEnvWins(t *testing.T) {
	t.Setenv("SESSION_SECRET", "from-env")
	cfg := &Config{Session: SessionConfig{Secret: "from-file"}}
	if got := cfg.SessionSecret(); got != "from-env" {
		t.Fatalf("secret = %q", got)
	}

	t.Setenv("SESSION_SECRET", "")
	if got := cfg.SessionSecret(); got != "from-file" {
		t.Fatalf("secret = %q", got)
	}
}

func TestSubscribePublish(t *testing.T) {
	m := NewManager(writeConfig(t, "config.json", `{"database":{"path":"p.db"}}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}

	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	m.publish(cfg)
	select {
	case got := <-sub:
		if got != cfg {
			t.Fatal("published config mismatch")
		}
	case <-time.After(time.Second):
		t.Fatal("no config published")
	}
}
