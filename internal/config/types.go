package config

// Config is the single on-disk configuration for pland.
//
// The file may be JSON or YAML; either way it is decoded strictly, so unknown
// keys are rejected early instead of being silently ignored.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Server  ServerConfig  `json:"server"`

	// Planner holds request defaults applied when a plan request omits the
	// calendar fields.
	Planner PlannerConfig `json:"planner,omitempty"`

	Storage *StorageConfig `json:"storage,omitempty"`
	Janitor *JanitorConfig `json:"janitor,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ServerConfig controls the HTTP API listener.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Defaults (when fields are omitted/zero):
//   - addr: "127.0.0.1:8080"
//   - read_timeout: "10s", write_timeout: "30s", idle_timeout: "60s"
//   - request_timeout: "15s"
//   - rate_per_sec: 20, burst: 2*rate_per_sec
type ServerConfig struct {
	Addr           string `json:"addr,omitempty"`
	ReadTimeout    string `json:"read_timeout,omitempty"`
	WriteTimeout   string `json:"write_timeout,omitempty"`
	IdleTimeout    string `json:"idle_timeout,omitempty"`
	RequestTimeout string `json:"request_timeout,omitempty"`

	// RatePerSec caps accepted requests per second (token bucket).
	// 0 keeps the default; negative disables limiting.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	Burst      int `json:"burst,omitempty"`
}

// PlannerConfig provides calendar defaults for plan requests.
//
// An empty WorkDays list means Monday through Friday.
type PlannerConfig struct {
	HoursPerDay float64  `json:"hours_per_day,omitempty"`
	WorkDays    []string `json:"work_days,omitempty"`
}

// StorageConfig controls the optional plan-history persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./pland_history" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// JanitorConfig controls periodic pruning of stored plan history.
//
// Spec is a cron expression (robfig/cron, 5-field). Retention is a Go
// duration string; entries older than it are removed on each run.
type JanitorConfig struct {
	Enabled   bool   `json:"enabled"`
	Spec      string `json:"spec,omitempty"`      // default: "0 3 * * *"
	Retention string `json:"retention,omitempty"` // default: "720h" (30 days)
}
