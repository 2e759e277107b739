package modbusadapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/simonvetter/modbus"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
)

// Scheme is the endpoint scheme the adapter serves.
const Scheme = "modbus-tcp"

// Server exposes an address space as a Modbus TCP slave.
type Server struct {
	logger log.Logger

	mu     sync.Mutex
	state  protocol.State
	store  *addrspace.Store
	layout *layout
	srv    *modbus.ModbusServer
}

// NewServer creates a stopped Modbus server adapter.
func NewServer(opts protocol.Options) *Server {
	return &Server{
		logger: opts.LoggerOrNoop(),
		state:  protocol.StateStopped,
	}
}

// Start implements protocol.ServerAdapter.
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

	lay, err := newLayout(cfg.Nodes)
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConfig, err)
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

	srv, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        "tcp://" + endpoint.Addr(),
		MaxClients: 16,
	}, &handler{server: s})
	if err != nil {
		s.transitionLocked(protocol.StateStopped)
		return fmt.Errorf("%w: %v", protocol.ErrConfig, err)
	}
	if err := srv.Start(); err != nil {
		s.transitionLocked(protocol.StateStopped)
		return fmt.Errorf("%w: %v", protocol.ErrBind, err)
	}

	s.store = store
	s.layout = lay
	s.srv = srv
	s.transitionLocked(protocol.StateRunning)
	return nil
}

// Stop implements protocol.ServerAdapter. It is idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != protocol.StateRunning {
		return nil
	}
	s.transitionLocked(protocol.StateStopping)
	if s.srv != nil {
		s.srv.Stop()
		s.srv = nil
	}
	s.layout = nil
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

// handler adapts the register map onto the store.
type handler struct {
	server *Server
}

// HandleHoldingRegisters serves reads and writes of the node slots.
func (h *handler) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	s := h.server

	s.mu.Lock()
	store, lay := s.store, s.layout
	running := s.state == protocol.StateRunning
	s.mu.Unlock()

	if !running {
		return nil, modbus.ErrServerDeviceFailure
	}

	first, count, ok := lay.slotRange(req.Addr, req.Quantity)
	if !ok {
		return nil, modbus.ErrIllegalDataAddress
	}

	if req.IsWrite {
		for i := 0; i < count; i++ {
			def := lay.node(first + i)
			slot := joinWords(req.Args[i*RegistersPerNode], req.Args[i*RegistersPerNode+1])
			value, err := decodeValue(def.Type, slot)
			if err != nil {
				return nil, modbus.ErrIllegalDataValue
			}
			if err := store.Write(def.ID, value); err != nil {
				s.logger.Log(log.Event{
					Category:   log.CategoryWrite,
					Protocol:   Scheme,
					RemoteAddr: req.ClientAddr,
					Node:       def.ID.String(),
					Message:    "write rejected",
					Err:        err,
				})
				return nil, modbus.ErrIllegalDataValue
			}
		}
		return nil, nil
	}

	regs := make([]uint16, 0, count*RegistersPerNode)
	for i := 0; i < count; i++ {
		def := lay.node(first + i)
		value, _, err := store.Read(def.ID)
		if err != nil {
			return nil, modbus.ErrServerDeviceFailure
		}
		slot, err := encodeValue(def.Type, value)
		if err != nil {
			return nil, modbus.ErrServerDeviceFailure
		}
		hi, lo := splitWords(slot)
		regs = append(regs, hi, lo)
	}
	return regs, nil
}

// HandleCoils rejects coil access; the map is registers only.
func (h *handler) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

// HandleDiscreteInputs rejects discrete input access.
func (h *handler) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

// HandleInputRegisters mirrors the holding registers read-only.
func (h *handler) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	return h.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{
		ClientAddr: req.ClientAddr,
		UnitId:     req.UnitId,
		Addr:       req.Addr,
		Quantity:   req.Quantity,
	})
}
