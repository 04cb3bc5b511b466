package core

import (
	"context"
	"testing"
	"time"
)

func TestStartRefreshScheduler(t *testing.T) {
	src := &fakeSource{text: alumniCSV}
	svc := NewService(src, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartRefreshScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("scheduler made %d fetches, want at least 2", src.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	if svc.Snapshot() == nil {
		t.Error("scheduler loads should publish a snapshot")
	}
}

func TestStartRefreshScheduler_Disabled(t *testing.T) {
	src := &fakeSource{text: alumniCSV}
	svc := NewService(src, Options{})

	done := make(chan struct{})
	go func() {
		svc.StartRefreshScheduler(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero interval should return immediately")
	}
	if src.calls.Load() != 0 {
		t.Errorf("Fetch called %d times, want 0", src.calls.Load())
	}
}
