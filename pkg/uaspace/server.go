package uaspace

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/subscription"
	"github.com/openplantsim/plantsim-go/pkg/transport"
	"github.com/openplantsim/plantsim-go/pkg/wire"
)

// Scheme is the endpoint scheme the adapter serves.
const Scheme = "opc.tcp"

// Subscription publishing defaults.
const (
	// DefaultPublishInterval is granted when a subscribe request asks
	// for no particular interval.
	DefaultPublishInterval = 500 * time.Millisecond

	// MinPublishInterval is the fastest granted interval.
	MinPublishInterval = 50 * time.Millisecond

	// HeartbeatInterval is the maximum silence before a heartbeat.
	HeartbeatInterval = 60 * time.Second

	// reportTick is how often pending subscription reports are flushed.
	reportTick = 50 * time.Millisecond
)

// session is one connected client with its own subscriptions.
type session struct {
	conn *transport.ServerConn
	subs *subscription.Manager
}

// Server serves an address space over the reference wire protocol.
type Server struct {
	logger log.Logger

	mu       sync.Mutex
	state    protocol.State
	store    *addrspace.Store
	srv      *transport.Server
	sessions map[string]*session
	nsURI    string
	unlisten func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a stopped server adapter.
func NewServer(opts protocol.Options) *Server {
	return &Server{
		logger:   opts.LoggerOrNoop(),
		state:    protocol.StateStopped,
		sessions: make(map[string]*session),
	}
}

// Start implements protocol.ServerAdapter.
func (s *Server) Start(ctx context.Context, cfg config.ServerConfig, store *addrspace.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != protocol.StateStopped && s.state != protocol.StateFaulted {
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

	s.transitionLocked(protocol.StateStarting)

	if cfg.NamespaceURI != "" {
		store.RegisterNamespace(cfg.NamespaceURI)
	}
	for _, def := range cfg.Nodes {
		if err := store.Register(def); err != nil {
			if errors.Is(err, addrspace.ErrDuplicateNode) {
				// First definition wins.
				continue
			}
			s.transitionLocked(protocol.StateStopped)
			return fmt.Errorf("%w: %v", protocol.ErrConfig, err)
		}
	}

	srv := transport.NewServer(transport.ServerConfig{
		Address:      endpoint.Addr(),
		Logger:       s.logger,
		OnConnect:    s.onConnect,
		OnDisconnect: s.onDisconnect,
		OnMessage:    s.onMessage,
		OnError:      s.onError,
	})

	runCtx, cancel := context.WithCancel(ctx)
	if err := srv.Start(runCtx); err != nil {
		cancel()
		s.transitionLocked(protocol.StateStopped)
		return fmt.Errorf("%w: %v", protocol.ErrBind, err)
	}

	s.store = store
	s.srv = srv
	s.nsURI = cfg.NamespaceURI
	s.cancel = cancel

	s.unlisten = store.OnChange(s.onStoreChange)

	s.wg.Add(1)
	go s.reportLoop(runCtx)

	s.transitionLocked(protocol.StateRunning)
	return nil
}

// Stop implements protocol.ServerAdapter. It is idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state != protocol.StateRunning && s.state != protocol.StateFaulted {
		s.mu.Unlock()
		return nil
	}
	s.transitionLocked(protocol.StateStopping)
	srv, cancel, unlisten := s.srv, s.cancel, s.unlisten
	s.srv = nil
	s.cancel = nil
	s.unlisten = nil
	s.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}

	if cancel != nil {
		cancel()
	}
	if srv != nil {
		srv.Stop()
	}
	s.wg.Wait()

	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.subs.ClearAll()
	}
	s.sessions = make(map[string]*session)
	s.transitionLocked(protocol.StateStopped)
	s.mu.Unlock()
	return nil
}

// Running implements protocol.ServerAdapter.
func (s *Server) Running() bool {
	return s.State() == protocol.StateRunning
}

// State returns the adapter's lifecycle state.
func (s *Server) State() protocol.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound listen address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil || s.srv.Addr() == nil {
		return ""
	}
	return s.srv.Addr().String()
}

// SessionCount returns the number of connected clients.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
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

// fault moves the adapter to the faulted state on an unrecoverable
// transport error and releases the transport. Start accepts a faulted
// adapter, so a supervisor can bring it back up.
func (s *Server) fault(err error) {
	s.mu.Lock()
	if s.state != protocol.StateRunning {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(protocol.StateFaulted)
	srv, cancel, unlisten := s.srv, s.cancel, s.unlisten
	s.srv = nil
	s.cancel = nil
	s.unlisten = nil
	s.mu.Unlock()

	s.logger.Log(log.Event{
		Category: log.CategoryTransport,
		Protocol: Scheme,
		Message:  "adapter faulted",
		Err:      err,
	})

	if unlisten != nil {
		unlisten()
	}
	if cancel != nil {
		cancel()
	}
	if srv != nil {
		// Stop waits for the accept loop this may be running on.
		go srv.Stop()
	}
}

func (s *Server) onConnect(conn *transport.ServerConn) {
	sess := &session{
		conn: conn,
		subs: subscription.NewManager(),
	}
	sess.subs.OnReport(func(rep subscription.Report) {
		s.sendReport(sess, rep)
	})

	s.mu.Lock()
	s.sessions[conn.ConnID()] = sess
	s.mu.Unlock()

	s.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		SessionID:  conn.ConnID(),
		RemoteAddr: conn.RemoteAddr().String(),
		Message:    "session opened",
	})
}

func (s *Server) onDisconnect(conn *transport.ServerConn) {
	s.mu.Lock()
	sess := s.sessions[conn.ConnID()]
	delete(s.sessions, conn.ConnID())
	s.mu.Unlock()

	if sess != nil {
		sess.subs.ClearAll()
	}

	s.logger.Log(log.Event{
		Category:   log.CategorySession,
		Protocol:   Scheme,
		SessionID:  conn.ConnID(),
		RemoteAddr: conn.RemoteAddr().String(),
		Message:    "session closed",
	})
}

func (s *Server) onError(conn *transport.ServerConn, err error) {
	event := log.Event{
		Category: log.CategoryTransport,
		Protocol: Scheme,
		Message:  "transport error",
		Err:      err,
	}
	if conn != nil {
		event.SessionID = conn.ConnID()
		event.RemoteAddr = conn.RemoteAddr().String()
	}
	s.logger.Log(event)

	// A listener-level error that cannot resolve on a later accept
	// means the adapter can no longer serve.
	if conn == nil && !isTransientError(err) {
		s.fault(err)
	}
}

// isTransientError reports whether a transport error may clear up on
// retry.
func isTransientError(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// onStoreChange fans a store write out to every session's
// subscription manager.
func (s *Server) onStoreChange(id nodeid.ID, value any, ts time.Time) {
	s.mu.Lock()
	if s.state != protocol.StateRunning && s.state != protocol.StateStopping {
		s.mu.Unlock()
		return
	}
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.subs.NotifyChange(id, value, ts)
	}
}

// reportLoop periodically flushes due subscription reports.
func (s *Server) reportLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(reportTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			sessions := make([]*session, 0, len(s.sessions))
			for _, sess := range s.sessions {
				sessions = append(sessions, sess)
			}
			s.mu.Unlock()

			for _, sess := range sessions {
				sess.subs.ProcessReports()
			}
		}
	}
}

// sendReport encodes a subscription report as a wire notification.
func (s *Server) sendReport(sess *session, rep subscription.Report) {
	changes := make([]wire.NodeValue, 0, len(rep.Values))
	for nid, v := range rep.Values {
		changes = append(changes, wire.NodeValue{
			NodeID:    nid.String(),
			Found:     true,
			Value:     v.Value,
			Timestamp: v.Timestamp.UnixNano(),
		})
	}

	data, err := wire.EncodeNotification(&wire.Notification{
		SubscriptionID: rep.SubscriptionID,
		Changes:        changes,
	})
	if err != nil {
		return
	}
	sess.conn.Send(data)
}

func (s *Server) onMessage(conn *transport.ServerConn, data []byte) {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		// Without a message ID there is nothing to answer.
		s.logger.Log(log.Event{
			Category:   log.CategoryTransport,
			Protocol:   Scheme,
			SessionID:  conn.ConnID(),
			RemoteAddr: conn.RemoteAddr().String(),
			Message:    "dropping undecodable request",
			Err:        err,
		})
		return
	}

	s.mu.Lock()
	state := s.state
	sess := s.sessions[conn.ConnID()]
	s.mu.Unlock()

	if state != protocol.StateRunning || sess == nil {
		s.respond(conn, req.MessageID, wire.StatusShuttingDown, nil)
		return
	}

	switch req.Operation {
	case wire.OpBrowse:
		s.handleBrowse(conn, req)
	case wire.OpRead:
		s.handleRead(conn, req)
	case wire.OpWrite:
		s.handleWrite(conn, req)
	case wire.OpSubscribe:
		s.handleSubscribe(conn, sess, req)
	case wire.OpUnsubscribe:
		s.handleUnsubscribe(conn, sess, req)
	default:
		s.respond(conn, req.MessageID, wire.StatusInvalidOperation, nil)
	}
}

func (s *Server) respond(conn *transport.ServerConn, msgID uint32, status wire.Status, payload any) {
	resp := &wire.Response{MessageID: msgID, Status: status}
	if payload != nil {
		raw, err := wire.MarshalPayload(payload)
		if err != nil {
			resp.Status = wire.StatusInternal
		} else {
			resp.Payload = raw
		}
	}
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		return
	}
	conn.Send(data)
}

func (s *Server) handleBrowse(conn *transport.ServerConn, req *wire.Request) {
	defs := s.store.List()
	nodes := make([]wire.NodeInfo, 0, len(defs))
	for _, def := range defs {
		nodes = append(nodes, wire.NodeInfo{
			NodeID: def.ID.String(),
			Name:   def.Name,
			Type:   def.Type.String(),
		})
	}
	s.respond(conn, req.MessageID, wire.StatusSuccess, &wire.BrowseResult{
		NamespaceURI: s.nsURI,
		Nodes:        nodes,
	})
}

func (s *Server) handleRead(conn *transport.ServerConn, req *wire.Request) {
	var payload wire.ReadPayload
	if err := wire.UnmarshalPayload(req.Payload, &payload); err != nil {
		s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		return
	}

	results := make([]wire.NodeValue, 0, len(payload.NodeIDs))
	for _, raw := range payload.NodeIDs {
		nv := wire.NodeValue{NodeID: raw}
		if id, err := nodeid.Parse(raw); err == nil {
			if value, ts, err := s.store.Read(id); err == nil {
				nv.Found = true
				nv.Value = value
				nv.Timestamp = ts.UnixNano()
			}
		}
		// Unknown and unparseable nodes stay Found=false; the rest of
		// the read is unaffected.
		results = append(results, nv)
	}

	s.respond(conn, req.MessageID, wire.StatusSuccess, &wire.ReadResult{Results: results})
}

func (s *Server) handleWrite(conn *transport.ServerConn, req *wire.Request) {
	var payload wire.WritePayload
	if err := wire.UnmarshalPayload(req.Payload, &payload); err != nil {
		s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		return
	}

	id, err := nodeid.Parse(payload.NodeID)
	if err != nil {
		s.respond(conn, req.MessageID, wire.StatusUnknownNode, nil)
		return
	}

	if err := s.store.Write(id, payload.Value); err != nil {
		status := wire.StatusInternal
		switch {
		case errors.Is(err, addrspace.ErrNodeNotFound):
			status = wire.StatusUnknownNode
		case errors.Is(err, addrspace.ErrTypeMismatch):
			status = wire.StatusTypeMismatch
		}
		s.logger.Log(log.Event{
			Category:   log.CategoryWrite,
			Protocol:   Scheme,
			SessionID:  conn.ConnID(),
			RemoteAddr: conn.RemoteAddr().String(),
			Node:       payload.NodeID,
			Message:    "write rejected",
			Err:        err,
		})
		s.respond(conn, req.MessageID, status, nil)
		return
	}

	s.respond(conn, req.MessageID, wire.StatusSuccess, nil)
}

func (s *Server) handleSubscribe(conn *transport.ServerConn, sess *session, req *wire.Request) {
	var payload wire.SubscribePayload
	if err := wire.UnmarshalPayload(req.Payload, &payload); err != nil {
		s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		return
	}
	if len(payload.NodeIDs) == 0 {
		s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		return
	}

	ids := make([]nodeid.ID, 0, len(payload.NodeIDs))
	current := make(map[nodeid.ID]subscription.Value)
	for _, raw := range payload.NodeIDs {
		id, err := nodeid.Parse(raw)
		if err != nil {
			s.respond(conn, req.MessageID, wire.StatusUnknownNode, nil)
			return
		}
		value, ts, err := s.store.Read(id)
		if err != nil {
			s.respond(conn, req.MessageID, wire.StatusUnknownNode, nil)
			return
		}
		ids = append(ids, id)
		current[id] = subscription.Value{Value: value, Timestamp: ts}
	}

	granted := DefaultPublishInterval
	if payload.Interval > 0 {
		granted = time.Duration(payload.Interval) * time.Millisecond
		if granted < MinPublishInterval {
			granted = MinPublishInterval
		}
	}

	subID, err := sess.subs.Subscribe(ids, granted, HeartbeatInterval, current)
	if err != nil {
		if errors.Is(err, subscription.ErrResourceExhausted) {
			s.respond(conn, req.MessageID, wire.StatusInternal, nil)
		} else {
			s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		}
		return
	}

	s.respond(conn, req.MessageID, wire.StatusSuccess, &wire.SubscribeResult{
		SubscriptionID: subID,
		Interval:       uint32(granted / time.Millisecond),
	})
}

func (s *Server) handleUnsubscribe(conn *transport.ServerConn, sess *session, req *wire.Request) {
	var payload wire.UnsubscribePayload
	if err := wire.UnmarshalPayload(req.Payload, &payload); err != nil {
		s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		return
	}
	if err := sess.subs.Unsubscribe(payload.SubscriptionID); err != nil {
		s.respond(conn, req.MessageID, wire.StatusInvalidPayload, nil)
		return
	}
	s.respond(conn, req.MessageID, wire.StatusSuccess, nil)
}
