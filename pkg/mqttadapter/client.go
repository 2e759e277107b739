package mqttadapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
)

// Client observes the retained node documents a Server publishes.
type Client struct {
	logger log.Logger

	mu        sync.Mutex
	connected bool
	client    mqtt.Client
	cfg       config.ClientConfig

	lastSeen map[nodeid.ID]protocol.PollResult
	subFns   []func(protocol.PollResult)
}

// NewClient creates a disconnected MQTT client adapter.
func NewClient(opts protocol.Options) *Client {
	return &Client{
		logger:   opts.LoggerOrNoop(),
		lastSeen: make(map[nodeid.ID]protocol.PollResult),
	}
}

// Connect implements protocol.ClientAdapter. It attaches to the broker
// and subscribes to the adapter's topic tree.
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
	prefix := endpoint.Path
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return fmt.Errorf("%w: already connected", protocol.ErrConnection)
	}

	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + endpoint.Addr()).
		SetClientID("plantsim-client-" + uuid.New().String()[:8]).
		SetConnectTimeout(connectTimeout)
	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConnection, token.Error())
	}

	// The broker may start delivering retained messages as soon as the
	// subscribe acks, before Connect finishes. The handler closes over
	// everything it needs so those deliveries are not lost.
	watched := make(map[nodeid.ID]bool, len(cfg.NodeIDs))
	for _, id := range cfg.NodeIDs {
		watched[id] = true
	}
	c.lastSeen = make(map[nodeid.ID]protocol.PollResult)
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		c.onMessage(prefix, watched, msg)
	}

	if token := client.Subscribe(prefix+"/#", 0, handler); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return fmt.Errorf("%w: %v", protocol.ErrConnection, token.Error())
	}

	c.client = client
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

// onMessage decodes a node document and updates the last-seen cache.
func (c *Client) onMessage(prefix string, watched map[nodeid.ID]bool, msg mqtt.Message) {
	raw := strings.TrimPrefix(msg.Topic(), prefix+"/")
	id, err := nodeid.Parse(raw)
	if err != nil {
		return
	}

	value, ts, err := decodeDocument(msg.Payload())
	if err != nil {
		c.logger.Log(log.Event{
			Category: log.CategoryTransport,
			Protocol: Scheme,
			Node:     raw,
			Message:  "dropping undecodable document",
			Err:      err,
		})
		return
	}

	result := protocol.PollResult{ID: id, Value: value, Timestamp: ts}

	c.mu.Lock()
	c.lastSeen[id] = result
	fns := append(([]func(protocol.PollResult))(nil), c.subFns...)
	c.mu.Unlock()

	if !watched[id] {
		return
	}
	for _, fn := range fns {
		fn(result)
	}
}

// Poll implements protocol.ClientAdapter, answering from the last-seen
// cache. Nodes never seen on the topic tree carry the NotFound marker.
func (c *Client) Poll(ctx context.Context) ([]protocol.PollResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, protocol.ErrNotConnected
	}

	results := make([]protocol.PollResult, len(c.cfg.NodeIDs))
	for i, id := range c.cfg.NodeIDs {
		if seen, ok := c.lastSeen[id]; ok {
			results[i] = seen
		} else {
			results[i] = protocol.PollResult{ID: id, NotFound: true}
		}
	}
	return results, nil
}

// Subscribe implements protocol.ClientAdapter. The callback fires for
// every published update of a configured node.
func (c *Client) Subscribe(ctx context.Context, fn func(protocol.PollResult)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return protocol.ErrNotConnected
	}
	c.subFns = append(c.subFns, fn)

	// Replay the cache so the subscriber starts from the current state,
	// mirroring the reference adapter's priming report.
	for _, id := range c.cfg.NodeIDs {
		if seen, ok := c.lastSeen[id]; ok {
			fn(seen)
		}
	}
	return nil
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
	c.client.Disconnect(250)
	c.client = nil
	c.subFns = nil

	c.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		RemoteAddr: c.cfg.Endpoint,
		Message:    "session closed",
	})
	return nil
}
