package modbusadapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
)

// Client polls a Modbus register map. Lacking type information, it
// reports raw register slots as int64 values.
type Client struct {
	logger log.Logger

	mu        sync.Mutex
	connected bool
	mc        *modbus.ModbusClient
	cfg       config.ClientConfig
}

// NewClient creates a disconnected Modbus client adapter.
func NewClient(opts protocol.Options) *Client {
	return &Client{logger: opts.LoggerOrNoop()}
}

// Connect implements protocol.ClientAdapter.
func (c *Client) Connect(ctx context.Context, cfg config.ClientConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConfig, err)
	}
	endpoint, err := protocol.ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return err
	}
	if endpoint.Scheme != Scheme {
		return fmt.Errorf("%w: scheme %q, want %q", protocol.ErrEndpointInvalid, endpoint.Scheme, Scheme)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return fmt.Errorf("%w: already connected", protocol.ErrConnection)
	}

	mc, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     "tcp://" + endpoint.Addr(),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrEndpointInvalid, err)
	}
	if err := mc.Open(); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConnection, err)
	}

	c.mc = mc
	c.cfg = cfg
	c.connected = true

	c.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		RemoteAddr: cfg.Endpoint,
		Message:    "session opened",
	})
	return nil
}

// Poll implements protocol.ClientAdapter. Each configured node maps to
// one register slot in list order; a slot the server does not expose
// comes back with the NotFound marker.
func (c *Client) Poll(ctx context.Context) ([]protocol.PollResult, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, protocol.ErrNotConnected
	}
	mc := c.mc
	nodeIDs := c.cfg.NodeIDs
	c.mu.Unlock()

	results := make([]protocol.PollResult, len(nodeIDs))
	for i, id := range nodeIDs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
		}

		results[i] = protocol.PollResult{ID: id}

		regs, err := mc.ReadRegisters(uint16(i*RegistersPerNode), RegistersPerNode, modbus.HOLDING_REGISTER)
		if err != nil {
			if errors.Is(err, modbus.ErrIllegalDataAddress) {
				results[i].NotFound = true
				continue
			}
			return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
		}

		results[i].Value = int64(joinWords(regs[0], regs[1]))
		results[i].Timestamp = time.Now()
	}
	return results, nil
}

// Subscribe implements protocol.ClientAdapter. Modbus is pure
// request/response.
func (c *Client) Subscribe(ctx context.Context, fn func(protocol.PollResult)) error {
	return protocol.ErrSubscribeUnsupported
}

// Disconnect implements protocol.ClientAdapter. It is idempotent and
// safe before Connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	err := c.mc.Close()
	c.mc = nil

	c.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		RemoteAddr: c.cfg.Endpoint,
		Message:    "session closed",
	})
	return err
}
