// Package janitor prunes plan history past a retention window on a cron
// schedule.
package janitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pland/internal/config"
	"pland/internal/eventbus"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

const (
	defaultSpec      = "0 3 * * *"
	defaultRetention = 720 * time.Hour
)

type Service struct {
	log   logx.Logger
	store storage.Store
	bus   eventbus.Bus

	mu        sync.Mutex
	c         *cron.Cron
	entry     cron.EntryID
	enabled   bool
	spec      string
	retention time.Duration
}

func New(store storage.Store, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:       log,
		store:     store,
		bus:       bus,
		spec:      defaultSpec,
		retention: defaultRetention,
	}
}

// Apply updates schedule and retention from config. Safe to call while
// running; the job is rescheduled in place.
func (s *Service) Apply(cfg config.JanitorConfig) error {
	spec := strings.TrimSpace(cfg.Spec)
	if spec == "" {
		spec = defaultSpec
	}
	retention, err := config.ParseDurationOrDefault("janitor.retention", cfg.Retention, defaultRetention)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = cfg.Enabled
	s.spec = spec
	s.retention = retention
	if s.c != nil {
		return s.rescheduleLocked()
	}
	return nil
}

// Start registers the cron job and begins running it. It is a no-op when
// the janitor is disabled or history storage is off.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || s.store == nil {
		return nil
	}

	s.c = cron.New()
	if err := s.rescheduleLocked(); err != nil {
		s.c = nil
		return err
	}
	s.c.Start()
	s.log.Info("janitor started",
		logx.Bool("enabled", s.enabled),
		logx.String("spec", s.spec),
		logx.Duration("retention", s.retention))
	return nil
}

// Stop halts the cron scheduler and waits for a running prune to finish
// or ctx to expire.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Service) rescheduleLocked() error {
	if s.entry != 0 {
		s.c.Remove(s.entry)
		s.entry = 0
	}
	if !s.enabled {
		return nil
	}
	id, err := s.c.AddFunc(s.spec, s.runOnce)
	if err != nil {
		return errors.New("janitor.spec: " + err.Error())
	}
	s.entry = id
	return nil
}

func (s *Service) runOnce() {
	s.mu.Lock()
	retention := s.retention
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-retention)
	n, err := s.store.PrunePlans(ctx, cutoff)
	if err != nil {
		s.log.Error("history prune failed", logx.Err(err))
		return
	}
	if n == 0 {
		return
	}
	s.log.Info("history pruned",
		logx.Int("removed", n),
		logx.Time("cutoff", cutoff))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeHistoryPruned,
			Time: time.Now().UTC(),
			Data: n,
		})
	}
}
