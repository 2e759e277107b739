package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Keep-alive constants.
const (
	// DefaultPingInterval is the default interval between pings.
	DefaultPingInterval = 30 * time.Second

	// DefaultPongTimeout is the default timeout waiting for a pong.
	DefaultPongTimeout = 5 * time.Second

	// DefaultMaxMissedPongs is the number of missed pongs tolerated
	// before the connection is considered dead.
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	// PingInterval is the interval between pings.
	PingInterval time.Duration

	// PongTimeout is the timeout waiting for a pong response.
	PongTimeout time.Duration

	// MaxMissedPongs is the number of missed pongs before disconnect.
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay is the worst-case time until a dead connection is
// detected with this configuration.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

// KeepAlive monitors connection liveness by sending periodic pings and
// tracking the matching pongs.
type KeepAlive struct {
	config KeepAliveConfig

	sendPing  func(seq uint32) error
	onTimeout func()

	sequence     atomic.Uint32
	missedPongs  int
	lastPingTime time.Time
	lastPongTime time.Time
	pendingPing  uint32
	hasPending   bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	pongCh  chan uint32
}

// NewKeepAlive creates a keep-alive monitor. sendPing transmits a ping
// with the given sequence number; onTimeout fires once the peer is
// considered dead.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	if config.PingInterval == 0 {
		config.PingInterval = DefaultPingInterval
	}
	if config.PongTimeout == 0 {
		config.PongTimeout = DefaultPongTimeout
	}
	if config.MaxMissedPongs == 0 {
		config.MaxMissedPongs = DefaultMaxMissedPongs
	}

	return &KeepAlive{
		config:    config,
		sendPing:  sendPing,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
		pongCh:    make(chan uint32, 1),
	}
}

// Start begins the monitoring loop.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	if ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})
	ka.mu.Unlock()

	go ka.loop(ctx)
}

// Stop stops the monitoring loop.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if !ka.running {
		return
	}
	ka.running = false
	close(ka.stopCh)
}

// PongReceived must be called when a pong frame arrives.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
		// Channel full; drop.
	}
}

// IsRunning reports whether monitoring is active.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

func (ka *KeepAlive) loop(ctx context.Context) {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.sendPingMessage()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ka.stopCh:
			return
		case <-ticker.C:
			ka.handleTick()
		case seq := <-ka.pongCh:
			ka.handlePong(seq)
		}
	}
}

func (ka *KeepAlive) sendPingMessage() {
	seq := ka.sequence.Add(1)

	ka.mu.Lock()
	ka.lastPingTime = time.Now()
	ka.pendingPing = seq
	ka.hasPending = true
	ka.mu.Unlock()

	if err := ka.sendPing(seq); err != nil {
		// Send failed; the pong timeout will catch the dead peer.
		ka.mu.Lock()
		ka.hasPending = false
		ka.mu.Unlock()
	}
}

func (ka *KeepAlive) handleTick() {
	ka.mu.Lock()

	if ka.hasPending && time.Since(ka.lastPingTime) >= ka.config.PongTimeout {
		ka.missedPongs++
		ka.hasPending = false

		if ka.missedPongs >= ka.config.MaxMissedPongs {
			ka.mu.Unlock()
			if ka.onTimeout != nil {
				ka.onTimeout()
			}
			return
		}
	}

	ka.mu.Unlock()
	ka.sendPingMessage()
}

func (ka *KeepAlive) handlePong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	ka.lastPongTime = time.Now()

	// Pongs with a stale sequence can arrive after the next ping went
	// out; ignore those.
	if ka.hasPending && seq == ka.pendingPing {
		ka.hasPending = false
		ka.missedPongs = 0
	}
}
