package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrDisabled is returned by drivers that were not compiled in.
var ErrDisabled = errors.New("storage driver disabled at build time")

// ErrNotFound is returned by GetPlan when no entry has the given ID.
var ErrNotFound = errors.New("plan not found")

// Config selects and tunes a storage driver.
type Config struct {
	// Driver is "file", "sqlite", or "none". Empty means "none".
	Driver string
	// Path is the journal file ("file") or database file ("sqlite").
	Path string
	// BusyTimeout bounds how long sqlite waits on a locked database.
	BusyTimeout time.Duration
}

// PlanEntry is one computed plan kept in history.
type PlanEntry struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	TaskCount    int             `json:"task_count"`
	WarningCount int             `json:"warning_count"`
	Result       json.RawMessage `json:"result"`
}

// Store is the plan history backend. Implementations must be safe for
// concurrent use.
type Store interface {
	// AppendPlan records a computed plan. IDs are unique; appending a
	// duplicate ID is an error.
	AppendPlan(ctx context.Context, e PlanEntry) error

	// GetPlan returns the entry with the given ID, or ErrNotFound.
	GetPlan(ctx context.Context, id string) (PlanEntry, error)

	// ListPlans returns up to limit entries, newest first. The Result
	// payload is omitted; fetch it with GetPlan.
	ListPlans(ctx context.Context, limit int) ([]PlanEntry, error)

	// PrunePlans deletes entries created before cutoff and returns how
	// many were removed.
	PrunePlans(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}
