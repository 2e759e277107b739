package mqttadapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
)

// Scheme is the endpoint scheme the adapter serves.
const Scheme = "mqtt"

// DefaultTopicPrefix is used when the endpoint names no prefix.
const DefaultTopicPrefix = "plantsim"

const connectTimeout = 10 * time.Second

// heartbeatInterval is how often the full node set is republished so
// brokers that dropped retained messages converge again.
const heartbeatInterval = 30 * time.Second

// Server publishes an address space to an MQTT broker.
type Server struct {
	logger log.Logger

	mu       sync.Mutex
	state    protocol.State
	store    *addrspace.Store
	client   mqtt.Client
	prefix   string
	done     chan struct{}
	unlisten func()
}

// NewServer creates a stopped MQTT publisher adapter.
func NewServer(opts protocol.Options) *Server {
	return &Server{
		logger: opts.LoggerOrNoop(),
		state:  protocol.StateStopped,
	}
}

// Start implements protocol.ServerAdapter. The broker named by the
// endpoint must be reachable; failure to attach maps to ErrBind.
func (s *Server) Start(ctx context.Context, cfg config.ServerConfig, store *addrspace.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != protocol.StateStopped {
		return fmt.Errorf("%w: adapter is %s", protocol.ErrConfig, s.state)
	}

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

	s.transitionLocked(protocol.StateStarting)

	if cfg.NamespaceURI != "" {
		store.RegisterNamespace(cfg.NamespaceURI)
	}
	for _, def := range cfg.Nodes {
		if err := store.Register(def); err != nil {
			if errors.Is(err, addrspace.ErrDuplicateNode) {
				continue
			}
			s.transitionLocked(protocol.StateStopped)
			return fmt.Errorf("%w: %v", protocol.ErrConfig, err)
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + endpoint.Addr()).
		SetClientID("plantsim-server-" + cfg.ServerName).
		SetConnectTimeout(connectTimeout)
	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		s.transitionLocked(protocol.StateStopped)
		return fmt.Errorf("%w: %v", protocol.ErrBind, token.Error())
	}

	s.store = store
	s.client = client
	s.prefix = prefix

	// Retained initial state so late subscribers see every node.
	for _, def := range store.List() {
		value, ts, err := store.Read(def.ID)
		if err != nil {
			continue
		}
		s.publishLocked(def.ID, def.Type, value, ts)
	}

	s.unlisten = store.OnChange(s.onStoreChange)

	s.done = make(chan struct{})
	go s.heartbeat(s.done)

	s.transitionLocked(protocol.StateRunning)
	return nil
}

// heartbeat republishes every node on a fixed interval.
func (s *Server) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.publishAll()
		}
	}
}

func (s *Server) publishAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != protocol.StateRunning {
		return
	}
	for _, def := range s.store.List() {
		value, ts, err := s.store.Read(def.ID)
		if err != nil {
			continue
		}
		s.publishLocked(def.ID, def.Type, value, ts)
	}
}

// Stop implements protocol.ServerAdapter. It is idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != protocol.StateRunning {
		return nil
	}
	s.transitionLocked(protocol.StateStopping)
	if s.unlisten != nil {
		s.unlisten()
		s.unlisten = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}
	s.transitionLocked(protocol.StateStopped)
	return nil
}

// Running implements protocol.ServerAdapter.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == protocol.StateRunning
}

func (s *Server) transitionLocked(next protocol.State) {
	old := s.state
	s.state = next
	s.logger.Log(log.Event{
		Category: log.CategoryState,
		Protocol: Scheme,
		OldState: old.String(),
		NewState: next.String(),
		Message:  "adapter state changed",
	})
}

func (s *Server) onStoreChange(id nodeid.ID, value any, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != protocol.StateRunning {
		return
	}
	def, err := s.store.Definition(id)
	if err != nil {
		return
	}
	s.publishLocked(id, def.Type, value, ts)
}

func (s *Server) publishLocked(id nodeid.ID, t addrspace.ValueType, value any, ts time.Time) {
	payload, err := encodeDocument(t, value, ts)
	if err != nil {
		s.logger.Log(log.Event{
			Category: log.CategoryTransport,
			Protocol: Scheme,
			Node:     id.String(),
			Message:  "publish failed",
			Err:      err,
		})
		return
	}
	s.client.Publish(s.prefix+"/"+id.String(), 0, true, payload)
}
