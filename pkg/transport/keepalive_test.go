package transport

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeepAliveDefaults(t *testing.T) {
	cfg := DefaultKeepAliveConfig()
	if cfg.PingInterval != DefaultPingInterval {
		t.Errorf("PingInterval = %v", cfg.PingInterval)
	}
	want := DefaultPingInterval*DefaultMaxMissedPongs + DefaultPongTimeout
	if cfg.DetectionDelay() != want {
		t.Errorf("DetectionDelay = %v, want %v", cfg.DetectionDelay(), want)
	}
}

func TestKeepAlivePingsAndStaysAlive(t *testing.T) {
	var mu sync.Mutex
	var pings []uint32
	timedOut := make(chan struct{}, 1)

	var ka *KeepAlive
	ka = NewKeepAlive(
		KeepAliveConfig{
			PingInterval:   10 * time.Millisecond,
			PongTimeout:    5 * time.Millisecond,
			MaxMissedPongs: 3,
		},
		func(seq uint32) error {
			mu.Lock()
			pings = append(pings, seq)
			mu.Unlock()
			// Healthy peer: answer immediately.
			ka.PongReceived(seq)
			return nil
		},
		func() { timedOut <- struct{}{} },
	)

	ka.Start(context.Background())
	defer ka.Stop()

	time.Sleep(100 * time.Millisecond)

	select {
	case <-timedOut:
		t.Fatal("healthy peer reported as dead")
	default:
	}

	mu.Lock()
	defer mu.Unlock()
	if len(pings) < 2 {
		t.Errorf("got %d pings, want at least 2", len(pings))
	}
}

func TestKeepAliveDetectsDeadPeer(t *testing.T) {
	timedOut := make(chan struct{}, 1)

	ka := NewKeepAlive(
		KeepAliveConfig{
			PingInterval:   5 * time.Millisecond,
			PongTimeout:    2 * time.Millisecond,
			MaxMissedPongs: 2,
		},
		func(seq uint32) error { return nil }, // pongs never arrive
		func() {
			select {
			case timedOut <- struct{}{}:
			default:
			}
		},
	)

	ka.Start(context.Background())
	defer ka.Stop()

	select {
	case <-timedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("dead peer not detected")
	}
}

func TestKeepAliveStartStop(t *testing.T) {
	ka := NewKeepAlive(DefaultKeepAliveConfig(), func(uint32) error { return nil }, nil)

	ka.Start(context.Background())
	if !ka.IsRunning() {
		t.Error("expected running after Start")
	}
	ka.Start(context.Background()) // no-op

	ka.Stop()
	if ka.IsRunning() {
		t.Error("expected stopped after Stop")
	}
	ka.Stop() // no-op
}
