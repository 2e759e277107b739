package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/log"
)

// Engine errors.
var (
	// ErrAlreadyRunning is returned by Start when the loop is active.
	ErrAlreadyRunning = errors.New("engine already running")
)

// Engine perturbs the nodes of a store on a fixed interval.
type Engine struct {
	store    *addrspace.Store
	interval time.Duration
	policy   UpdatePolicy
	logger   log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an engine over store. An interval of zero disables the
// update loop: Start succeeds but no ticks occur. A nil policy selects
// the default PlantPolicy seeded from the current time; a nil logger
// discards events.
func New(store *addrspace.Store, interval time.Duration, policy UpdatePolicy, logger log.Logger) *Engine {
	if policy == nil {
		policy = NewPlantPolicy(time.Now().UnixNano())
	}
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Engine{
		store:    store,
		interval: interval,
		policy:   policy,
		logger:   logger,
	}
}

// Start launches the update loop. It returns ErrAlreadyRunning if the
// loop is active.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}
	e.running = true

	if e.interval <= 0 {
		// Static address space: nothing to drive.
		return nil
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.loop(e.stopCh, e.doneCh)
	return nil
}

// Stop halts the update loop and waits for the in-flight tick, if any,
// to finish. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stopCh, doneCh := e.stopCh, e.doneCh
	e.stopCh, e.doneCh = nil, nil
	e.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}
}

// Running reports whether the loop has been started and not stopped.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick applies the update policy to every node once. It is called by
// the loop on each interval and may be called directly for
// deterministic stepping. A node whose update fails is skipped; the
// failure is logged and the remaining nodes still update.
func (e *Engine) Tick() {
	for _, node := range e.store.List() {
		current, _, err := e.store.Read(node.ID)
		if err != nil {
			e.logger.Log(log.Event{
				Category: log.CategoryEngine,
				Node:     node.ID.String(),
				Message:  "tick update skipped",
				Err:      fmt.Errorf("reading %s: %w", node.ID, err),
			})
			continue
		}
		next, ok := e.policy.Next(node.ID, node.Type, current)
		if !ok {
			continue
		}
		if err := e.store.Write(node.ID, next); err != nil {
			e.logger.Log(log.Event{
				Category: log.CategoryEngine,
				Node:     node.ID.String(),
				Message:  "tick update skipped",
				Err:      fmt.Errorf("updating %s: %w", node.ID, err),
			})
		}
	}
}
