package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	logx "pland/pkg/logx"
)

func TestCancelOnError(t *testing.T) {
	s := New(context.Background(), WithLogger(logx.Nop()), WithCancelOnError(true))

	boom := errors.New("boom")
	s.Go("failing", func(ctx context.Context) error { return boom })
	s.Go("waiting", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("want first error %v, got %v", boom, err)
	}
}

func TestPanicBecomesError(t *testing.T) {
	s := New(context.Background(), WithLogger(logx.Nop()), WithCancelOnError(true))

	s.Go("panicky", func(ctx context.Context) error { panic("kaboom") })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if err == nil || !strings.Contains(err.Error(), "panicky") {
		t.Fatalf("want panic error naming the goroutine, got %v", err)
	}
}

func TestCleanExitOnCancel(t *testing.T) {
	s := New(context.Background(), WithLogger(logx.Nop()))

	s.Go("worker", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if got := s.Active(); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("context.Canceled should be a clean exit, got %v", err)
	}
}
