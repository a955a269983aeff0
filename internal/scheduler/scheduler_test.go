package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedule(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })

	if err := s.Schedule("0 2 * * *"); err != nil {
		t.Errorf("Schedule() with valid cron = %v, want nil", err)
	}
	if st := s.Status(); !st.Scheduled || st.Schedule != "0 2 * * *" {
		t.Errorf("Status() = %+v, want scheduled", st)
	}
}

func TestScheduleInvalidCron(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })

	if err := s.Schedule("invalid cron"); err == nil {
		t.Error("Schedule() with invalid cron = nil, want error")
	}
}

func TestScheduleReplacesExisting(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })

	if err := s.Schedule("0 2 * * *"); err != nil {
		t.Fatalf("first Schedule: %v", err)
	}
	if err := s.Schedule("30 * * * *"); err != nil {
		t.Fatalf("second Schedule: %v", err)
	}
	if st := s.Status(); st.Schedule != "30 * * * *" {
		t.Errorf("schedule = %q, want replacement to win", st.Schedule)
	}
}

func TestTrigger(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	s := New(func(ctx context.Context) error {
		calls.Add(1)
		close(done)
		return nil
	})
	s.Start()

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger() = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
	<-s.Stop().Done()

	if calls.Load() != 1 {
		t.Errorf("refresh ran %d times, want 1", calls.Load())
	}
}

func TestTriggerWhileRunning(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	s := New(func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	})
	s.Start()

	if err := s.Trigger(); err != nil {
		t.Fatalf("first Trigger() = %v", err)
	}
	<-started

	if err := s.Trigger(); err == nil {
		t.Error("second Trigger() during refresh = nil, want error")
	}

	close(block)
	<-s.Stop().Done()
}

func TestTriggerAfterStop(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })
	s.Start()
	<-s.Stop().Done()

	if err := s.Trigger(); err == nil {
		t.Error("Trigger() after Stop = nil, want error")
	}
	if s.IsRunning() {
		t.Error("IsRunning() after Stop = true")
	}
}

func TestStatusRecordsLastError(t *testing.T) {
	refreshErr := errors.New("directory locked")
	done := make(chan struct{})
	s := New(func(ctx context.Context) error {
		defer close(done)
		return refreshErr
	})
	s.Start()

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger() = %v", err)
	}
	<-done
	<-s.Stop().Done()

	if st := s.Status(); st.LastError != refreshErr.Error() {
		t.Errorf("LastError = %q, want %q", st.LastError, refreshErr)
	}
}

func TestStopCancelsRefreshContext(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	s := New(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	s.Start()

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger() = %v", err)
	}
	<-started
	<-s.Stop().Done()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh context was not cancelled on Stop")
	}
}
