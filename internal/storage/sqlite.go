//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "pland/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendPlan(ctx context.Context, e PlanEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("plan entry id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans(id, created_at, task_count, warning_count, result)
		 VALUES(?,?,?,?,?)`,
		e.ID, e.CreatedAt.UTC().Format(time.RFC3339Nano), e.TaskCount, e.WarningCount, string(e.Result),
	)
	return err
}

func (s *sqliteStore) GetPlan(ctx context.Context, id string) (PlanEntry, error) {
	if s == nil || s.db == nil {
		return PlanEntry{}, ErrDisabled
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, task_count, warning_count, result FROM plans WHERE id = ?`, id)

	var e PlanEntry
	var at, result string
	if err := row.Scan(&e.ID, &at, &e.TaskCount, &e.WarningCount, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PlanEntry{}, ErrNotFound
		}
		return PlanEntry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return PlanEntry{}, err
	}
	e.CreatedAt = t
	e.Result = json.RawMessage(result)
	return e, nil
}

func (s *sqliteStore) ListPlans(ctx context.Context, limit int) ([]PlanEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, task_count, warning_count FROM plans
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlanEntry
	for rows.Next() {
		var e PlanEntry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.TaskCount, &e.WarningCount); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = t
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PrunePlans(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM plans WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
