package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/wire"
)

// ServerConfig configures a simulator transport server.
type ServerConfig struct {
	// Address to listen on (e.g., ":4840" or "127.0.0.1:4840").
	Address string

	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// Logger for transport events (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnMessage is called when a non-control message is received.
	OnMessage func(conn *ServerConn, msg []byte)

	// OnError is called when an error occurs. conn is nil for errors
	// not tied to a connection.
	OnError func(conn *ServerConn, err error)
}

// Server is a TCP server that accepts client connections and delivers
// complete frames through callbacks.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new transport server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				if s.config.OnError != nil {
					s.config.OnError(nil, fmt.Errorf("accept error: %w", err))
				}
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection processes a single connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()

	sconn := &ServerConn{
		conn:       conn,
		framer:     NewFramerWithMaxSize(conn, s.config.MaxMessageSize),
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
		connID:     connID,
	}

	s.logConnState(sconn, "", "CONNECTED")

	s.connsMu.Lock()
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	s.logConnState(sconn, "CONNECTED", "DISCONNECTED")

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

func (s *Server) logConnState(c *ServerConn, oldState, newState string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Category:   log.CategoryTransport,
		SessionID:  c.connID,
		RemoteAddr: c.remoteAddr.String(),
		OldState:   oldState,
		NewState:   newState,
		Message:    "connection state changed",
	})
}

// ServerConn represents a client connection to the server.
type ServerConn struct {
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string
}

// RemoteAddr returns the remote address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the unique connection identifier.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Send sends a message to the client.
func (c *ServerConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop reads messages from the connection. Control frames are
// handled here; everything else goes to the OnMessage callback.
func (c *ServerConn) readLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case <-c.server.ctx.Done():
			return
		default:
		}

		data, err := c.framer.ReadFrame()
		if err != nil {
			if c.server.config.OnError != nil && c.server.running.Load() {
				select {
				case <-c.closeCh:
					// Already closing, don't report.
				default:
					c.server.config.OnError(c, err)
				}
			}
			return
		}

		kind, peekErr := wire.PeekKind(data)
		if peekErr == nil && kind == wire.KindControl {
			if ctrl, err := wire.DecodeControl(data); err == nil {
				c.handleControl(ctrl)
				continue
			}
		}

		if c.server.config.OnMessage != nil {
			c.server.config.OnMessage(c, data)
		}
	}
}

// handleControl answers control messages at the transport layer.
func (c *ServerConn) handleControl(msg *wire.Control) {
	switch msg.Type {
	case wire.ControlPing:
		pong, _ := EncodePong(msg.Sequence)
		c.Send(pong)

	case wire.ControlPong:
		// Keep-alive is client initiated; nothing to do here.

	case wire.ControlClose:
		// Peer initiated close. Acknowledge and close.
		closeMsg, _ := EncodeClose()
		c.Send(closeMsg)
		c.Close()
	}
}

// EncodePing encodes a ping control message.
func EncodePing(seq uint32) ([]byte, error) {
	return wire.EncodeControl(&wire.Control{Type: wire.ControlPing, Sequence: seq})
}

// EncodePong encodes a pong control message.
func EncodePong(seq uint32) ([]byte, error) {
	return wire.EncodeControl(&wire.Control{Type: wire.ControlPong, Sequence: seq})
}

// EncodeClose encodes a close control message.
func EncodeClose() ([]byte, error) {
	return wire.EncodeControl(&wire.Control{Type: wire.ControlClose})
}
