package addrspace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// Store errors.
var (
	ErrDuplicateNode = errors.New("node already registered")
	ErrNodeNotFound  = errors.New("node not found")
	ErrTypeMismatch  = errors.New("value type mismatch")
)

// FirstNamespaceIndex is the index assigned to the first registered
// namespace. Indexes 0 and 1 are reserved by convention.
const FirstNamespaceIndex uint16 = 2

// NodeDefinition describes a simulated node. Definitions are immutable
// after registration.
type NodeDefinition struct {
	// ID is the namespace-qualified node identifier.
	ID nodeid.ID

	// Name is the human-readable display name.
	Name string

	// Type is the declared value type.
	Type ValueType

	// Initial is the value the node starts with.
	Initial any
}

// Validate checks the definition for structural problems.
func (d NodeDefinition) Validate() error {
	if d.ID.IsZero() {
		return fmt.Errorf("node %q: missing identifier", d.Name)
	}
	if !d.Type.IsValid() {
		return fmt.Errorf("node %s: invalid value type", d.ID)
	}
	if _, err := Coerce(d.Type, d.Initial); err != nil {
		return fmt.Errorf("node %s: initial value: %w", d.ID, err)
	}
	return nil
}

// ChangeListener is notified after a write has been applied.
// Listeners run on the writer's goroutine and must not block.
type ChangeListener func(id nodeid.ID, value any, ts time.Time)

// node pairs a definition with its mutable state.
type node struct {
	def       NodeDefinition
	value     any
	timestamp time.Time
}

// Store is the thread-safe registry of node definitions and state.
// A single coarse RWMutex guards all state: reads never observe a
// half-applied write, and a rejected write leaves state untouched.
type Store struct {
	mu         sync.RWMutex
	nodes      map[nodeid.ID]*node
	order      []nodeid.ID
	namespaces   map[string]uint16
	nextNS       uint16
	listeners    []listenerEntry
	nextListener int
}

type listenerEntry struct {
	id int
	fn ChangeListener
}

// NewStore creates an empty address space.
func NewStore() *Store {
	return &Store{
		nodes:      make(map[nodeid.ID]*node),
		namespaces: make(map[string]uint16),
		nextNS:     FirstNamespaceIndex,
	}
}

// RegisterNamespace maps a namespace URI to an index, allocating the next
// free index on first registration. Registering the same URI again
// returns the existing index.
func (s *Store) RegisterNamespace(uri string) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.namespaces[uri]; ok {
		return idx
	}
	idx := s.nextNS
	s.namespaces[uri] = idx
	s.nextNS++
	return idx
}

// NamespaceURI returns the URI registered for an index.
func (s *Store) NamespaceURI(index uint16) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for uri, idx := range s.namespaces {
		if idx == index {
			return uri, true
		}
	}
	return "", false
}

// Register adds a node to the address space with its initial value.
// Registering an identifier that already exists fails with
// ErrDuplicateNode and keeps the first registration.
func (s *Store) Register(def NodeDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	initial, err := Coerce(def.Type, def.Initial)
	if err != nil {
		return fmt.Errorf("%w: node %s: %v", ErrTypeMismatch, def.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, def.ID)
	}

	s.nodes[def.ID] = &node{
		def:       def,
		value:     initial,
		timestamp: time.Now(),
	}
	s.order = append(s.order, def.ID)
	return nil
}

// Definition returns the immutable definition of a node.
func (s *Store) Definition(id nodeid.ID) (NodeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.nodes[id]
	if !exists {
		return NodeDefinition{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n.def, nil
}

// Read returns the node's current value and last-updated timestamp.
func (s *Store) Read(id nodeid.ID) (any, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.nodes[id]
	if !exists {
		return nil, time.Time{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n.value, n.timestamp, nil
}

// Write validates v against the node's declared type and updates value
// and timestamp as one atomic transition. A rejected write returns
// ErrTypeMismatch and leaves the node unchanged. Change listeners are
// invoked after the lock is released, in write-completion order for any
// single node.
func (s *Store) Write(id nodeid.ID, v any) error {
	s.mu.Lock()

	n, exists := s.nodes[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	value, err := Coerce(n.def.Type, v)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: node %s: %v", ErrTypeMismatch, id, err)
	}

	ts := time.Now()
	n.value = value
	n.timestamp = ts

	listeners := make([]ChangeListener, 0, len(s.listeners))
	for _, e := range s.listeners {
		listeners = append(listeners, e.fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id, value, ts)
	}
	return nil
}

// List returns every node definition in registration order. The returned
// slice is a copy: callers may iterate it while the store keeps mutating.
func (s *Store) List() []NodeDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]NodeDefinition, 0, len(s.order))
	for _, id := range s.order {
		defs = append(defs, s.nodes[id].def)
	}
	return defs
}

// Len returns the number of registered nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// OnChange registers a listener invoked after every applied write. The
// returned function removes the listener again; calling it more than
// once is harmless.
func (s *Store) OnChange(fn ChangeListener) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
