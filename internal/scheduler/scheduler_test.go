package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"jobscout/internal/pipeline"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(_ context.Context) (pipeline.Stats, error) {
	r.calls.Add(1)
	return pipeline.Stats{}, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ImmediateFirstCycle(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got != 1 {
		t.Fatalf("runner calls = %d, want 1 immediate cycle", got)
	}
}

func TestRun_TicksOnInterval(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 50*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Enough time for the immediate cycle plus at least two ticks.
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got < 3 {
		t.Errorf("runner calls = %d, want >= 3", got)
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	s := NewScheduler(&countingRunner{}, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_FailedCycleDoesNotStopLoop(t *testing.T) {
	runner := &countingRunner{err: errors.New("database locked")}
	s := NewScheduler(runner, 50*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got < 2 {
		t.Errorf("runner calls = %d, want >= 2 despite failures", got)
	}
}
