package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	logx "pland/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.plans.jsonl (append-only JSON Lines journal)
//
// The journal is replayed into memory at open and rewritten in place
// when PrunePlans drops entries.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	journalPath string
	journalFile *os.File

	entries []PlanEntry
	byID    map[string]int
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	journalPath := prefix + ".plans.jsonl"

	entries, byID, err := replayPlanJournal(journalPath)
	if err != nil {
		return nil, err
	}

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:         log,
		journalPath: journalPath,
		journalFile: jf,
		entries:     entries,
		byID:        byID,
	}, nil
}

func replayPlanJournal(path string) ([]PlanEntry, map[string]int, error) {
	byID := map[string]int{}
	var entries []PlanEntry

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, byID, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e PlanEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// Skip a torn tail line; everything before it is intact.
			continue
		}
		if e.ID == "" {
			continue
		}
		if i, ok := byID[e.ID]; ok {
			entries[i] = e
			continue
		}
		byID[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return entries, byID, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return nil
	}
	err := s.journalFile.Close()
	s.journalFile = nil
	return err
}

func (s *fileStore) AppendPlan(ctx context.Context, e PlanEntry) error {
	_ = ctx
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("plan entry id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return errors.New("plan journal closed")
	}
	if _, ok := s.byID[e.ID]; ok {
		return errors.New("duplicate plan id: " + e.ID)
	}

	if err := json.NewEncoder(s.journalFile).Encode(e); err != nil {
		return err
	}
	s.byID[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return nil
}

func (s *fileStore) GetPlan(ctx context.Context, id string) (PlanEntry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return PlanEntry{}, ErrNotFound
	}
	return s.entries[i], nil
}

func (s *fileStore) ListPlans(ctx context.Context, limit int) ([]PlanEntry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PlanEntry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Result = nil
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fileStore) PrunePlans(ctx context.Context, cutoff time.Time) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return 0, errors.New("plan journal closed")
	}

	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.rewriteLocked(kept); err != nil {
		return 0, err
	}

	s.entries = kept
	s.byID = make(map[string]int, len(kept))
	for i, e := range kept {
		s.byID[e.ID] = i
	}
	return removed, nil
}

// rewriteLocked replaces the journal with the given entries via a temp
// file and rename, then reopens the append handle.
func (s *fileStore) rewriteLocked(entries []PlanEntry) error {
	tmp := s.journalPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := s.journalFile.Close(); err != nil {
		s.log.Debug("journal close before rewrite failed", logx.Err(err))
	}
	if err := os.Rename(tmp, s.journalPath); err != nil {
		return err
	}
	jf, err := os.OpenFile(s.journalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	s.journalFile = jf
	return nil
}
