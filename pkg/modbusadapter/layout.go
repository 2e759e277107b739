package modbusadapter

import (
	"fmt"
	"math"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
)

// RegistersPerNode is the width of one node slot.
const RegistersPerNode = 2

// layout maps holding-register addresses to nodes by configuration
// order. It is immutable after construction.
type layout struct {
	nodes []addrspace.NodeDefinition
}

// newLayout validates that every node is representable in a register
// slot.
func newLayout(nodes []addrspace.NodeDefinition) (*layout, error) {
	for _, def := range nodes {
		if def.Type == addrspace.TypeString {
			return nil, fmt.Errorf("string node %s has no register representation", def.ID)
		}
	}
	return &layout{nodes: nodes}, nil
}

// registerCount returns the total number of mapped holding registers.
func (l *layout) registerCount() uint16 {
	return uint16(len(l.nodes) * RegistersPerNode)
}

// slotRange resolves a register window to a node index range. The
// window must align to slot boundaries and stay inside the map.
func (l *layout) slotRange(addr, quantity uint16) (first, count int, ok bool) {
	if addr%RegistersPerNode != 0 || quantity%RegistersPerNode != 0 || quantity == 0 {
		return 0, 0, false
	}
	// Sum in int: addr+quantity can exceed uint16 on wire-legal
	// requests ending at register 0xffff.
	if int(addr)+int(quantity) > int(l.registerCount()) {
		return 0, 0, false
	}
	return int(addr / RegistersPerNode), int(quantity / RegistersPerNode), true
}

// node returns the definition at slot index i.
func (l *layout) node(i int) addrspace.NodeDefinition {
	return l.nodes[i]
}

// encodeValue packs a canonical store value into a 32-bit slot.
func encodeValue(t addrspace.ValueType, v any) (uint32, error) {
	switch t {
	case addrspace.TypeFloat:
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("float node holds %T", v)
		}
		return math.Float32bits(float32(f)), nil
	case addrspace.TypeInt:
		n, ok := v.(int64)
		if !ok {
			return 0, fmt.Errorf("int node holds %T", v)
		}
		if n > math.MaxInt32 {
			n = math.MaxInt32
		} else if n < math.MinInt32 {
			n = math.MinInt32
		}
		return uint32(int32(n)), nil
	case addrspace.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("bool node holds %T", v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("type %s has no register representation", t)
	}
}

// decodeValue unpacks a 32-bit slot per the node's declared type.
func decodeValue(t addrspace.ValueType, slot uint32) (any, error) {
	switch t {
	case addrspace.TypeFloat:
		return float64(math.Float32frombits(slot)), nil
	case addrspace.TypeInt:
		return int64(int32(slot)), nil
	case addrspace.TypeBool:
		return slot != 0, nil
	default:
		return nil, fmt.Errorf("type %s has no register representation", t)
	}
}

// splitWords splits a slot into registers, high word first.
func splitWords(slot uint32) (hi, lo uint16) {
	return uint16(slot >> 16), uint16(slot & 0xffff)
}

// joinWords joins two registers into a slot, high word first.
func joinWords(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}
