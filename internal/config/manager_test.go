package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pland.yaml", `
logging:
  level: debug
  console: true
server:
  addr: "127.0.0.1:9090"
  rate_per_sec: 5
planner:
  hours_per_day: 6
  work_days: [Mon, Tue, Wed]
storage:
  driver: file
  path: ./history
janitor:
  enabled: true
  spec: "0 4 * * *"
  retention: 168h
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" || cfg.Server.RatePerSec != 5 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Planner.HoursPerDay != 6 || len(cfg.Planner.WorkDays) != 3 {
		t.Fatalf("planner = %+v", cfg.Planner)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "file" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Janitor == nil || !cfg.Janitor.Enabled || cfg.Janitor.Retention != "168h" {
		t.Fatalf("janitor = %+v", cfg.Janitor)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pland.yaml", `
logging:
  level: info
metrics:
  enabled: true
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestParseRejectsTrailingJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pland.json", `{"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}},"server":{}}{"extra":1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected trailing data to be rejected")
	}
}

func TestChangedSections(t *testing.T) {
	t.Parallel()

	a := &Config{Logging: LoggingConfig{Level: "info"}}
	b := &Config{Logging: LoggingConfig{Level: "debug"}, Janitor: &JanitorConfig{Enabled: true}}

	got := ChangedSections(a, b)
	want := map[string]bool{"logging": true, "janitor": true}
	if len(got) != len(want) {
		t.Fatalf("ChangedSections = %v", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Fatalf("unexpected section %q in %v", s, got)
		}
	}
	if diff := ChangedSections(a, a); len(diff) != 0 {
		t.Fatalf("identical configs should report no changes, got %v", diff)
	}
}
