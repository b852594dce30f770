// Package recorder drains plan.computed events into the history store.
// Keeping the write off the request path means a slow disk never delays
// an HTTP response.
package recorder

import (
	"context"

	"pland/internal/eventbus"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

type Service struct {
	log   logx.Logger
	store storage.Store
	bus   eventbus.Bus
}

func New(store storage.Store, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, store: store, bus: bus}
}

// Run consumes events until ctx is canceled. It never returns an error:
// a failed write is logged and the next event is processed.
func (s *Service) Run(ctx context.Context) error {
	ch, unsub := s.bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if e.Type != eventbus.TypePlanComputed {
				continue
			}
			entry, ok := e.Data.(storage.PlanEntry)
			if !ok {
				s.log.Warn("plan.computed event with unexpected payload",
					logx.Any("data", e.Data))
				continue
			}
			if err := s.store.AppendPlan(ctx, entry); err != nil {
				s.log.Error("plan history append failed",
					logx.String("id", entry.ID), logx.Err(err))
				continue
			}
			s.log.Debug("plan recorded",
				logx.String("id", entry.ID),
				logx.Int("tasks", entry.TaskCount))
		}
	}
}
