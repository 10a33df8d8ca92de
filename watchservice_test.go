package smbfs

import (
	"context"
	"testing"
	"time"

	"github.com/jfrommann/smbnio/internal/smbtest"
)

func newTestWatchService(t *testing.T) *WatchService {
	t.Helper()
	poller := newPoller(smbtest.New(), time.Hour) // long interval: tests drive events manually
	ws := newWatchService(poller)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestWatchService_PollReturnsNilWhenEmpty(t *testing.T) {
	ws := newTestWatchService(t)
	key, err := ws.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if key != nil {
		t.Fatalf("Poll() = %v, want nil", key)
	}
}

func TestWatchService_PollReturnsSignaledKey(t *testing.T) {
	ws := newTestWatchService(t)
	key, err := ws.Register(context.Background(), "a", []EventKind{EventCreate, EventModify, EventDelete})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	key.signal(EventModify, "a")

	got, err := ws.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got != key {
		t.Fatalf("Poll() returned a different key than was signaled")
	}
}

func TestWatchService_CloseUnblocksTake(t *testing.T) {
	ws := newTestWatchService(t)

	done := make(chan error, 1)
	go func() {
		_, err := ws.Take(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond) // let Take block before closing
	ws.Close()

	select {
	case err := <-done:
		if !IsKind(err, ClosedWatchService) {
			t.Errorf("Take error = %v, want ClosedWatchService", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Close")
	}
}

func TestWatchService_RegisterAfterCloseFails(t *testing.T) {
	ws := newTestWatchService(t)
	ws.Close()

	_, err := ws.Register(context.Background(), "a", []EventKind{EventCreate})
	if !IsKind(err, ClosedWatchService) {
		t.Errorf("Register after Close: err = %v, want ClosedWatchService", err)
	}
}
