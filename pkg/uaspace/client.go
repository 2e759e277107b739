package uaspace

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/transport"
	"github.com/openplantsim/plantsim-go/pkg/wire"
)

// DefaultRequestTimeout bounds a request waiting for its response when
// the caller's context has no deadline.
const DefaultRequestTimeout = 10 * time.Second

// Client is the polling client adapter for the reference protocol.
type Client struct {
	logger log.Logger

	mu        sync.Mutex
	connected bool
	conn      *transport.ClientConn
	cfg       config.ClientConfig
	pending   map[uint32]chan *wire.Response
	subFns    []func(protocol.PollResult)
	keepalive *transport.KeepAlive
	cancel    context.CancelFunc

	nextID atomic.Uint32
	wg     sync.WaitGroup
}

// NewClient creates a disconnected client adapter.
func NewClient(opts protocol.Options) *Client {
	return &Client{
		logger:  opts.LoggerOrNoop(),
		pending: make(map[uint32]chan *wire.Response),
	}
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

	tc := transport.NewClient(transport.ClientConfig{})
	conn, err := tc.Connect(ctx, endpoint.Addr())
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConnection, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.conn = conn
	c.cfg = cfg
	c.connected = true
	c.cancel = cancel
	c.pending = make(map[uint32]chan *wire.Response)

	c.keepalive = transport.NewKeepAlive(
		transport.DefaultKeepAliveConfig(),
		conn.SendPing,
		func() {
			c.logger.Log(log.Event{
				Category:   log.CategoryTransport,
				Protocol:   Scheme,
				RemoteAddr: cfg.Endpoint,
				Message:    "keep-alive timeout, disconnecting",
			})
			c.Disconnect()
		},
	)
	c.keepalive.Start(runCtx)

	c.wg.Add(1)
	go c.readLoop(conn)

	c.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		RemoteAddr: cfg.Endpoint,
		Message:    "session opened",
	})
	return nil
}

// Disconnect implements protocol.ClientAdapter. It is idempotent and
// safe before Connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	conn, ka, cancel := c.conn, c.keepalive, c.cancel
	endpoint := c.cfg.Endpoint
	c.conn = nil
	c.keepalive = nil
	c.cancel = nil

	// Fail everything still waiting for a response.
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if ka != nil {
		ka.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.SendClose()
		conn.Close()
	}
	c.wg.Wait()

	c.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		RemoteAddr: endpoint,
		Message:    "session closed",
	})
	return nil
}

// Poll implements protocol.ClientAdapter. Results come back in
// configuration order; unknown nodes carry the NotFound marker.
func (c *Client) Poll(ctx context.Context) ([]protocol.PollResult, error) {
	c.mu.Lock()
	nodeIDs := c.cfg.NodeIDs
	c.mu.Unlock()

	rawIDs := make([]string, len(nodeIDs))
	for i, id := range nodeIDs {
		rawIDs[i] = id.String()
	}

	resp, err := c.request(ctx, wire.OpRead, &wire.ReadPayload{NodeIDs: rawIDs})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: read failed: %s", protocol.ErrConnection, resp.Status)
	}

	var result wire.ReadResult
	if err := wire.UnmarshalPayload(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
	}
	if len(result.Results) != len(nodeIDs) {
		return nil, fmt.Errorf("%w: got %d results for %d nodes", protocol.ErrConnection, len(result.Results), len(nodeIDs))
	}

	results := make([]protocol.PollResult, len(nodeIDs))
	for i, nv := range result.Results {
		results[i] = protocol.PollResult{
			ID:       nodeIDs[i],
			NotFound: !nv.Found,
		}
		if nv.Found {
			results[i].Value = normalizeValue(nv.Value)
			results[i].Timestamp = time.Unix(0, nv.Timestamp)
		}
	}
	return results, nil
}

// Write sets a node value server-side. It satisfies protocol.Writer.
func (c *Client) Write(ctx context.Context, id nodeid.ID, value any) error {
	resp, err := c.request(ctx, wire.OpWrite, &wire.WritePayload{
		NodeID: id.String(),
		Value:  value,
	})
	if err != nil {
		return err
	}

	switch resp.Status {
	case wire.StatusSuccess:
		return nil
	case wire.StatusUnknownNode:
		return fmt.Errorf("%s: %w", id, addrspace.ErrNodeNotFound)
	case wire.StatusTypeMismatch:
		return fmt.Errorf("%s: %w", id, addrspace.ErrTypeMismatch)
	default:
		return fmt.Errorf("%w: write failed: %s", protocol.ErrConnection, resp.Status)
	}
}

// Subscribe implements protocol.ClientAdapter. The callback receives
// every pushed value change for the configured nodes, starting with
// the server's priming report.
func (c *Client) Subscribe(ctx context.Context, fn func(protocol.PollResult)) error {
	c.mu.Lock()
	nodeIDs := c.cfg.NodeIDs
	c.subFns = append(c.subFns, fn)
	c.mu.Unlock()

	rawIDs := make([]string, len(nodeIDs))
	for i, id := range nodeIDs {
		rawIDs[i] = id.String()
	}

	resp, err := c.request(ctx, wire.OpSubscribe, &wire.SubscribePayload{NodeIDs: rawIDs})
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: subscribe failed: %s", protocol.ErrConnection, resp.Status)
	}
	return nil
}

// Browse lists the nodes the server exposes.
func (c *Client) Browse(ctx context.Context) (*wire.BrowseResult, error) {
	resp, err := c.request(ctx, wire.OpBrowse, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: browse failed: %s", protocol.ErrConnection, resp.Status)
	}
	var result wire.BrowseResult
	if err := wire.UnmarshalPayload(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
	}
	return &result, nil
}

// request sends one request and waits for the matching response.
func (c *Client) request(ctx context.Context, op wire.Operation, payload any) (*wire.Response, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, protocol.ErrNotConnected
	}
	conn := c.conn
	msgID := c.nextID.Add(1)
	ch := make(chan *wire.Response, 1)
	c.pending[msgID] = ch
	c.mu.Unlock()

	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, msgID)
		c.mu.Unlock()
	}

	req := &wire.Request{MessageID: msgID, Operation: op}
	if payload != nil {
		raw, err := wire.MarshalPayload(payload)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
		}
		req.Payload = raw
	}

	data, err := wire.EncodeRequest(req)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
	}
	if err := conn.Send(data); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: connection lost", protocol.ErrConnection)
		}
		return resp, nil
	case <-ctx.Done():
		cleanup()
		return nil, fmt.Errorf("%w: %v", protocol.ErrConnection, ctx.Err())
	}
}

// readLoop receives frames and routes them: responses to their waiting
// request, notifications to subscription callbacks, pongs to the
// keep-alive monitor.
func (c *Client) readLoop(conn *transport.ClientConn) {
	defer c.wg.Done()

	for {
		data, err := conn.Receive(0)
		if err != nil {
			c.mu.Lock()
			stillConnected := c.connected && c.conn == conn
			c.mu.Unlock()
			if stillConnected {
				c.logger.Log(log.Event{
					Category: log.CategoryTransport,
					Protocol: Scheme,
					Message:  "connection lost",
					Err:      err,
				})
				// Disconnect on a fresh goroutine: Disconnect waits for
				// this loop to exit.
				go c.Disconnect()
			}
			return
		}

		kind, err := wire.PeekKind(data)
		if err != nil {
			continue
		}

		switch kind {
		case wire.KindResponse:
			resp, err := wire.DecodeResponse(data)
			if err != nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[resp.MessageID]
			if ok {
				delete(c.pending, resp.MessageID)
			}
			c.mu.Unlock()
			if ok {
				ch <- resp
			}

		case wire.KindNotification:
			notif, err := wire.DecodeNotification(data)
			if err != nil {
				continue
			}
			c.dispatchNotification(notif)

		case wire.KindControl:
			ctrl, err := wire.DecodeControl(data)
			if err != nil {
				continue
			}
			if ctrl.Type == wire.ControlPong {
				c.mu.Lock()
				ka := c.keepalive
				c.mu.Unlock()
				if ka != nil {
					ka.PongReceived(ctrl.Sequence)
				}
			}
		}
	}
}

func (c *Client) dispatchNotification(notif *wire.Notification) {
	c.mu.Lock()
	fns := append(([]func(protocol.PollResult))(nil), c.subFns...)
	c.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	for _, change := range notif.Changes {
		id, err := nodeid.Parse(change.NodeID)
		if err != nil {
			continue
		}
		result := protocol.PollResult{
			ID:        id,
			Value:     normalizeValue(change.Value),
			Timestamp: time.Unix(0, change.Timestamp),
			NotFound:  !change.Found,
		}
		for _, fn := range fns {
			fn(result)
		}
	}
}

// normalizeValue maps CBOR decoder output onto the store's canonical
// value types.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
