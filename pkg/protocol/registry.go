package protocol

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry errors.
var (
	ErrUnknownProtocol    = errors.New("unknown protocol")
	ErrDuplicateProtocol  = errors.New("protocol already registered")
	ErrIncompleteAdapters = errors.New("adapter pair incomplete")
)

// Factory builds the adapter pair for one protocol.
type Factory struct {
	// NewServer constructs a server adapter.
	NewServer func(opts Options) ServerAdapter

	// NewClient constructs a client adapter.
	NewClient func(opts Options) ClientAdapter
}

// Registry maps protocol names to adapter factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Register adds a protocol's adapter factory pair under name.
// Both factories must be present; duplicate names are rejected.
func (r *Registry) Register(name string, factory Factory) error {
	if factory.NewServer == nil || factory.NewClient == nil {
		return fmt.Errorf("%w: %s", ErrIncompleteAdapters, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProtocol, name)
	}
	r.entries[name] = factory
	return nil
}

// Server constructs a server adapter for the named protocol.
func (r *Registry) Server(name string, opts Options) (ServerAdapter, error) {
	r.mu.RLock()
	factory, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, name)
	}
	return factory.NewServer(opts), nil
}

// Client constructs a client adapter for the named protocol.
func (r *Registry) Client(name string, opts Options) (ClientAdapter, error) {
	r.mu.RLock()
	factory, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, name)
	}
	return factory.NewClient(opts), nil
}

// Names returns the registered protocol names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
