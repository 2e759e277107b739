package protocol

import (
	"context"
	"errors"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// Error taxonomy shared by all adapters. Adapters wrap these sentinels
// with fmt.Errorf("%w: ...") so callers can classify failures with
// errors.Is regardless of the protocol in use.
var (
	// ErrConfig indicates a malformed or contradictory configuration.
	// Fatal at startup; the adapter does not start.
	ErrConfig = errors.New("invalid configuration")

	// ErrBind indicates the server endpoint could not be bound.
	ErrBind = errors.New("endpoint bind failed")

	// ErrConnection indicates a client transport failure (refusal,
	// timeout, lost session).
	ErrConnection = errors.New("connection failed")

	// ErrEndpointInvalid indicates a malformed endpoint address.
	ErrEndpointInvalid = errors.New("invalid endpoint")

	// ErrNotConnected indicates an operation that needs an established
	// session was called before Connect (or after Disconnect).
	ErrNotConnected = errors.New("not connected")

	// ErrSubscribeUnsupported is returned by adapters for protocols
	// without push semantics (e.g. Modbus).
	ErrSubscribeUnsupported = errors.New("subscribe not supported by this protocol")
)

// ServerAdapter exposes an address space over one wire protocol.
type ServerAdapter interface {
	// Start binds the configured endpoint, initializes the address space
	// from cfg (registering namespace and nodes) and begins serving
	// client sessions. It returns ErrConfig for structurally invalid
	// configuration and ErrBind when the endpoint is in use.
	Start(ctx context.Context, cfg config.ServerConfig, store *addrspace.Store) error

	// Stop gracefully closes all sessions and releases the endpoint.
	// In-flight requests complete or are cleanly failed, never left
	// half-processed. Stop is idempotent.
	Stop() error

	// Running reports whether the adapter is serving.
	Running() bool
}

// PollResult is one observed node value. When the server does not know
// the node, NotFound is set and Value is nil; the rest of the poll is
// unaffected.
type PollResult struct {
	ID        nodeid.ID
	Value     any
	Timestamp time.Time
	NotFound  bool
}

// ClientAdapter observes node values exposed by a ServerAdapter.
type ClientAdapter interface {
	// Connect establishes a session to the configured endpoint. It
	// returns ErrEndpointInvalid for a malformed endpoint and
	// ErrConnection on refusal or timeout.
	Connect(ctx context.Context, cfg config.ClientConfig) error

	// Poll fetches the current value of every configured node in one
	// synchronous round trip. Results come back in configuration order;
	// unknown nodes carry the NotFound marker. Polling cadence is the
	// caller's concern: Poll never loops.
	Poll(ctx context.Context) ([]PollResult, error)

	// Subscribe registers a callback for pushed value changes.
	// Protocols without push semantics return ErrSubscribeUnsupported.
	Subscribe(ctx context.Context, fn func(PollResult)) error

	// Disconnect releases the session. Safe to call repeatedly and
	// before Connect.
	Disconnect() error
}

// Writer is the optional write capability of a client adapter. Callers
// that need it assert for the interface.
type Writer interface {
	// Write sets a node value server-side, subject to the server's type
	// validation.
	Write(ctx context.Context, id nodeid.ID, value any) error
}

// Options carries cross-cutting collaborators into adapter factories.
type Options struct {
	// Logger receives structured protocol events. Nil means discard.
	Logger log.Logger
}

// LoggerOrNoop returns the configured logger, defaulting to a noop sink.
func (o Options) LoggerOrNoop() log.Logger {
	if o.Logger == nil {
		return log.NoopLogger{}
	}
	return o.Logger
}
