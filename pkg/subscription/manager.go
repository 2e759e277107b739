package subscription

import (
	"sync"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// Report is a subscription report ready to send.
type Report struct {
	// SubscriptionID identifies the subscription.
	SubscriptionID uint32

	// Values maps changed nodes to their new values.
	Values map[nodeid.ID]Value

	// IsPriming indicates the initial full-state report.
	IsPriming bool

	// IsHeartbeat indicates a liveness report without changes behind it.
	IsHeartbeat bool

	// Timestamp is when the report was generated.
	Timestamp time.Time
}

// Manager owns the subscriptions of one client session.
type Manager struct {
	mu sync.RWMutex

	config Config

	subscriptions map[uint32]*Subscription

	// Index by node for efficient change dispatch.
	nodeIndex map[nodeid.ID][]*Subscription

	onReport func(Report)
}

// NewManager creates a subscription manager with default configuration.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a subscription manager with custom
// configuration.
func NewManagerWithConfig(config Config) *Manager {
	if config.MaxSubscriptions <= 0 {
		config.MaxSubscriptions = DefaultMaxSubscriptions
	}
	if config.MaxNodesPerSub <= 0 {
		config.MaxNodesPerSub = DefaultMaxNodesPerSub
	}
	return &Manager{
		config:        config,
		subscriptions: make(map[uint32]*Subscription),
		nodeIndex:     make(map[nodeid.ID][]*Subscription),
	}
}

// Subscribe creates a subscription over nodeIDs and returns its ID.
// currentValues seeds the priming report delivered through the report
// callback before any change report.
func (m *Manager) Subscribe(
	nodeIDs []nodeid.ID,
	minInterval, maxInterval time.Duration,
	currentValues map[nodeid.ID]Value,
) (uint32, error) {
	if len(nodeIDs) == 0 {
		return 0, ErrNoNodes
	}
	if len(nodeIDs) > m.config.MaxNodesPerSub {
		return 0, ErrResourceExhausted
	}
	if maxInterval == 0 || minInterval > maxInterval {
		return 0, ErrInvalidInterval
	}

	m.mu.Lock()

	if len(m.subscriptions) >= m.config.MaxSubscriptions {
		m.mu.Unlock()
		return 0, ErrResourceExhausted
	}

	id := nextID()
	sub := NewSubscription(id, nodeIDs, minInterval, maxInterval)

	priming := make(map[nodeid.ID]Value)
	for _, nid := range nodeIDs {
		if v, ok := currentValues[nid]; ok {
			priming[nid] = v
		}
	}
	sub.SetPrimingValues(priming)

	m.subscriptions[id] = sub
	for _, nid := range nodeIDs {
		m.nodeIndex[nid] = append(m.nodeIndex[nid], sub)
	}

	onReport := m.onReport
	m.mu.Unlock()

	// Priming report goes out before any change report, outside the
	// lock.
	if onReport != nil && len(priming) > 0 {
		onReport(Report{
			SubscriptionID: id,
			Values:         priming,
			IsPriming:      true,
			Timestamp:      time.Now(),
		})
	}

	return id, nil
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, exists := m.subscriptions[subscriptionID]
	if !exists {
		return ErrSubscriptionNotFound
	}

	sub.Deactivate()
	delete(m.subscriptions, subscriptionID)

	for _, nid := range sub.NodeIDs {
		subs := m.nodeIndex[nid]
		for i, s := range subs {
			if s.ID == subscriptionID {
				m.nodeIndex[nid] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(m.nodeIndex[nid]) == 0 {
			delete(m.nodeIndex, nid)
		}
	}

	return nil
}

// NotifyChange records a node value change for dispatch to the
// subscriptions watching that node.
func (m *Manager) NotifyChange(id nodeid.ID, value any, ts time.Time) {
	m.mu.RLock()
	subs := m.nodeIndex[id]
	m.mu.RUnlock()

	for _, sub := range subs {
		sub.RecordChange(id, value, ts)
	}
}

// ProcessReports checks all subscriptions and delivers due change
// reports and heartbeats. Call it periodically.
func (m *Manager) ProcessReports() {
	m.mu.RLock()
	subs := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	onReport := m.onReport
	config := m.config
	m.mu.RUnlock()

	if onReport == nil {
		return
	}

	for _, sub := range subs {
		if values := sub.PendingReport(config.SuppressUnchanged); values != nil {
			onReport(Report{
				SubscriptionID: sub.ID,
				Values:         values,
				Timestamp:      time.Now(),
			})
		}

		if sub.NeedsHeartbeat() {
			sub.RecordHeartbeat()
			onReport(Report{
				SubscriptionID: sub.ID,
				IsHeartbeat:    true,
				Timestamp:      time.Now(),
			})
		}
	}
}

// ClearAll removes all subscriptions, e.g. when the session drops.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subscriptions {
		sub.Deactivate()
	}
	m.subscriptions = make(map[uint32]*Subscription)
	m.nodeIndex = make(map[nodeid.ID][]*Subscription)
}

// Count returns the number of active subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Get returns a subscription by ID.
func (m *Manager) Get(subscriptionID uint32) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, exists := m.subscriptions[subscriptionID]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// OnReport sets the callback that delivers reports.
func (m *Manager) OnReport(fn func(Report)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReport = fn
}
