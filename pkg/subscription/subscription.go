package subscription

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// Subscription errors.
var (
	ErrInvalidInterval      = errors.New("invalid subscription interval")
	ErrNoNodes              = errors.New("subscription names no nodes")
	ErrResourceExhausted    = errors.New("maximum subscriptions reached")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Default subscription limits.
const (
	DefaultMinInterval      = 1 * time.Second
	DefaultMaxInterval      = 60 * time.Second
	DefaultMaxSubscriptions = 50
	DefaultMaxNodesPerSub   = 100
)

// Config holds subscription manager configuration.
type Config struct {
	// MaxSubscriptions is the maximum number of subscriptions allowed.
	MaxSubscriptions int

	// MaxNodesPerSub is the maximum node count per subscription.
	MaxNodesPerSub int

	// SuppressUnchanged drops reports whose values equal the last
	// reported ones.
	SuppressUnchanged bool
}

// DefaultConfig returns the default subscription configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubscriptions:  DefaultMaxSubscriptions,
		MaxNodesPerSub:    DefaultMaxNodesPerSub,
		SuppressUnchanged: true,
	}
}

// Value is a node value together with its update timestamp.
type Value struct {
	Value     any
	Timestamp time.Time
}

// Subscription is one client's registration for change reports on a
// set of nodes.
type Subscription struct {
	mu sync.RWMutex

	// ID is the unique subscription identifier.
	ID uint32

	// NodeIDs lists the watched nodes.
	NodeIDs []nodeid.ID

	// MinInterval is the minimum time between reports (coalescing
	// window).
	MinInterval time.Duration

	// MaxInterval is the maximum time without a report (heartbeat
	// deadline).
	MaxInterval time.Duration

	nodeSet map[nodeid.ID]struct{}

	lastReported time.Time
	lastValues   map[nodeid.ID]any

	pendingChanges    map[nodeid.ID]Value
	changeWindowStart time.Time
	hasChanges        bool

	active bool
}

// NewSubscription creates a subscription over the given nodes.
func NewSubscription(id uint32, nodeIDs []nodeid.ID, minInterval, maxInterval time.Duration) *Subscription {
	nodeSet := make(map[nodeid.ID]struct{}, len(nodeIDs))
	for _, nid := range nodeIDs {
		nodeSet[nid] = struct{}{}
	}
	return &Subscription{
		ID:             id,
		NodeIDs:        nodeIDs,
		MinInterval:    minInterval,
		MaxInterval:    maxInterval,
		nodeSet:        nodeSet,
		lastReported:   time.Now(),
		lastValues:     make(map[nodeid.ID]any),
		pendingChanges: make(map[nodeid.ID]Value),
		active:         true,
	}
}

// IsActive returns whether the subscription is active.
func (s *Subscription) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Deactivate marks the subscription as inactive.
func (s *Subscription) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// Watches reports whether the subscription covers the given node.
func (s *Subscription) Watches(id nodeid.ID) bool {
	_, ok := s.nodeSet[id]
	return ok
}

// RecordChange records a value change for a node. Later changes to the
// same node within the coalescing window replace earlier ones.
func (s *Subscription) RecordChange(id nodeid.ID, value any, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	if _, ok := s.nodeSet[id]; !ok {
		return
	}

	if !s.hasChanges {
		s.changeWindowStart = time.Now()
	}
	s.pendingChanges[id] = Value{Value: value, Timestamp: ts}
	s.hasChanges = true
}

// PendingReport returns the coalesced changes due for reporting, or
// nil when the window is still open or nothing changed. Reported
// values become the new suppression baseline.
func (s *Subscription) PendingReport(suppressUnchanged bool) map[nodeid.ID]Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.hasChanges {
		return nil
	}
	if time.Since(s.changeWindowStart) < s.MinInterval {
		return nil
	}

	report := make(map[nodeid.ID]Value)
	for nid, change := range s.pendingChanges {
		if suppressUnchanged {
			if last, exists := s.lastValues[nid]; exists && valuesEqual(last, change.Value) {
				continue
			}
		}
		report[nid] = change
		s.lastValues[nid] = change.Value
	}

	s.pendingChanges = make(map[nodeid.ID]Value)
	s.hasChanges = false
	s.lastReported = time.Now()

	if len(report) == 0 {
		// Every change bounced back to its reported value.
		return nil
	}
	return report
}

// NeedsHeartbeat reports whether the heartbeat deadline has passed.
func (s *Subscription) NeedsHeartbeat() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return false
	}
	return time.Since(s.lastReported) >= s.MaxInterval
}

// RecordHeartbeat records that a heartbeat report was sent.
func (s *Subscription) RecordHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReported = time.Now()
}

// SetPrimingValues seeds the suppression baseline from the priming
// report.
func (s *Subscription) SetPrimingValues(values map[nodeid.ID]Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for nid, v := range values {
		s.lastValues[nid] = v.Value
	}
	s.lastReported = time.Now()
}

// TimeUntilCoalesceExpiry returns the time left in the coalescing
// window, or 0 when no changes are pending.
func (s *Subscription) TimeUntilCoalesceExpiry() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasChanges {
		return 0
	}
	elapsed := time.Since(s.changeWindowStart)
	if elapsed >= s.MinInterval {
		return 0
	}
	return s.MinInterval - elapsed
}

// valuesEqual compares two node values. Store values are canonical
// (float64, int64, string, bool), so a type switch covers them.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// idGenerator generates unique subscription IDs.
var idGenerator atomic.Uint32

// nextID returns the next unique subscription ID.
func nextID() uint32 {
	return idGenerator.Add(1)
}
