// Package adapters wires the built-in protocol adapters into a
// protocol registry.
package adapters

import (
	"github.com/openplantsim/plantsim-go/pkg/modbusadapter"
	"github.com/openplantsim/plantsim-go/pkg/mqttadapter"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/uaspace"
)

// Protocol names for the built-in adapters.
const (
	NameUASpace = "uaspace"
	NameModbus  = "modbus"
	NameMQTT    = "mqtt"
)

// Register adds the built-in adapter factories to reg.
func Register(reg *protocol.Registry) error {
	if err := reg.Register(NameUASpace, protocol.Factory{
		NewServer: func(opts protocol.Options) protocol.ServerAdapter { return uaspace.NewServer(opts) },
		NewClient: func(opts protocol.Options) protocol.ClientAdapter { return uaspace.NewClient(opts) },
	}); err != nil {
		return err
	}

	if err := reg.Register(NameModbus, protocol.Factory{
		NewServer: func(opts protocol.Options) protocol.ServerAdapter { return modbusadapter.NewServer(opts) },
		NewClient: func(opts protocol.Options) protocol.ClientAdapter { return modbusadapter.NewClient(opts) },
	}); err != nil {
		return err
	}

	return reg.Register(NameMQTT, protocol.Factory{
		NewServer: func(opts protocol.Options) protocol.ServerAdapter { return mqttadapter.NewServer(opts) },
		NewClient: func(opts protocol.Options) protocol.ClientAdapter { return mqttadapter.NewClient(opts) },
	})
}

// NewRegistry returns a registry with all built-in adapters registered.
func NewRegistry() *protocol.Registry {
	reg := protocol.NewRegistry()
	// Register only fails on duplicates; the registry is empty here.
	_ = Register(reg)
	return reg
}
