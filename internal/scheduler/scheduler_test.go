package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

func init() {
	logger.Init()
}

func TestEveryRunsImmediatelyAndRepeats(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}

	var runs atomic.Int32
	if err := s.Every("count", 50*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Every() failed: %v", err)
	}

	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if runs.Load() < 2 {
		t.Errorf("expected at least 2 runs, got %d", runs.Load())
	}
}

func TestFailingJobKeepsRunning(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}

	var runs atomic.Int32
	_ = s.Every("fail", 50*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("clickhouse unavailable")
	})

	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	_ = s.Stop()

	if runs.Load() < 2 {
		t.Errorf("failing job should be retried on schedule, got %d runs", runs.Load())
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}

	started := make(chan struct{})
	var cancelled atomic.Bool
	_ = s.Every("block", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if !cancelled.Load() {
		t.Error("job context was not cancelled by Stop()")
	}
}

func TestEveryRejectsBadInterval(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}
	defer s.Stop()

	if err := s.Every("zero", 0, func(context.Context) error { return nil }); err == nil {
		t.Error("expected error for zero interval")
	}
}
