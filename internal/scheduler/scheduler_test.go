package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	if _, err := New(Options{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestNextTickAligned(t *testing.T) {
	s, err := New(Options{Interval: 5 * time.Minute, AlignToStart: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	now := time.Date(2025, 9, 18, 9, 2, 30, 0, time.UTC)
	if got, want := s.nextTick(now), time.Date(2025, 9, 18, 9, 5, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("nextTick = %v, want %v", got, want)
	}

	onBoundary := time.Date(2025, 9, 18, 9, 5, 0, 0, time.UTC)
	if got, want := s.nextTick(onBoundary), time.Date(2025, 9, 18, 9, 10, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("nextTick on boundary = %v, want %v", got, want)
	}
}

func TestCronSchedule(t *testing.T) {
	s, err := New(Options{Cron: "*/5 18-23,0-15 * * 1-5"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Thursday 16:02 is in the daily gap; the next tick is the 18:00 open.
	now := time.Date(2025, 9, 18, 16, 2, 0, 0, time.UTC)
	if got, want := s.nextTick(now), time.Date(2025, 9, 18, 18, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("nextTick = %v, want %v", got, want)
	}
	if got, want := s.advance(time.Date(2025, 9, 18, 18, 0, 0, 0, time.UTC)), time.Date(2025, 9, 18, 18, 5, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("advance = %v, want %v", got, want)
	}

	if _, err := New(Options{Cron: "not a cron"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNextTickUnaligned(t *testing.T) {
	s, err := New(Options{Interval: time.Minute}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2025, 9, 18, 9, 2, 30, 0, time.UTC)
	if got := s.nextTick(now); !got.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected next tick %v", got)
	}
	if got := s.tickStart(now); !got.Equal(now) {
		t.Fatalf("unaligned tick start should be unchanged, got %v", got)
	}
}

func TestRunImmediateTickAndCancel(t *testing.T) {
	s, err := New(Options{Interval: time.Hour, Immediate: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context, time.Time) error {
			calls.Add(1)
			cancel()
			return errors.New("render failed")
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop after cancel")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one immediate tick, got %d", calls.Load())
	}
}

func TestRunRepeats(t *testing.T) {
	s, err := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var calls atomic.Int32
	err = s.Run(ctx, func(context.Context, time.Time) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three ticks, got %d", calls.Load())
	}
}
