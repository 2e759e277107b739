package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// Validation errors.
var (
	ErrMissingEndpoint  = errors.New("missing endpoint")
	ErrBadPollInterval  = errors.New("poll interval must be positive")
	ErrBadLoopInterval  = errors.New("update interval must not be negative")
	ErrDuplicateNodeID  = errors.New("duplicate node identifier")
	ErrNoClientNodes    = errors.New("no node identifiers configured")
	ErrUnknownValueType = errors.New("unknown value type")
)

// ServerConfig configures a server adapter instance.
type ServerConfig struct {
	// Endpoint is the opaque bind address, scheme://host:port.
	Endpoint string

	// NamespaceURI identifies the namespace all configured nodes belong to.
	NamespaceURI string

	// ServerName is the display name advertised to clients.
	ServerName string

	// UpdateInterval is the node update engine period. Zero disables
	// periodic updates: values stay static until written externally.
	UpdateInterval time.Duration

	// Nodes is the ordered set of node definitions to register.
	Nodes []addrspace.NodeDefinition
}

// Validate checks the configuration for structural problems.
// A failed validation is fatal at startup.
func (c ServerConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("server: %w", ErrMissingEndpoint)
	}
	if c.UpdateInterval < 0 {
		return fmt.Errorf("server: %w: %s", ErrBadLoopInterval, c.UpdateInterval)
	}
	seen := make(map[nodeid.ID]struct{}, len(c.Nodes))
	for _, def := range c.Nodes {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		if _, dup := seen[def.ID]; dup {
			return fmt.Errorf("server: %w: %s", ErrDuplicateNodeID, def.ID)
		}
		seen[def.ID] = struct{}{}
	}
	return nil
}

// ClientConfig configures a client adapter instance.
type ClientConfig struct {
	// Endpoint is the opaque target address, scheme://host:port.
	Endpoint string

	// PollInterval is the cadence the caller should poll with. The
	// adapters themselves never loop; this value drives the scheduling
	// code around them.
	PollInterval time.Duration

	// NodeIDs is the ordered set of node identifiers to observe.
	NodeIDs []nodeid.ID
}

// Validate checks the configuration for structural problems.
func (c ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("client: %w", ErrMissingEndpoint)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("client: %w: %s", ErrBadPollInterval, c.PollInterval)
	}
	if len(c.NodeIDs) == 0 {
		return fmt.Errorf("client: %w", ErrNoClientNodes)
	}
	return nil
}
