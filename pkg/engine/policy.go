package engine

import (
	"math/rand"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// UpdatePolicy computes the next value for a node on each tick. The
// current value is always in the store's canonical representation for
// the node's type. Returning ok=false leaves the node untouched.
type UpdatePolicy interface {
	Next(id nodeid.ID, valueType addrspace.ValueType, current any) (next any, ok bool)
}

// Default plant-signal policy tuning.
const (
	// defaultWalkStep bounds a single random-walk move for floats.
	defaultWalkStep = 1.0

	// defaultIntPeriod is the modulus of the integer counter cycle.
	defaultIntPeriod = 5
)

// PlantPolicy is the default update policy. It imitates a set of live
// plant signals:
//
//   - floats take a bounded random walk around their current value
//   - integers count up and wrap at a fixed period
//   - booleans toggle on every tick
//   - strings stay constant
type PlantPolicy struct {
	rng *rand.Rand

	// WalkStep bounds the per-tick change of a float node. Zero means
	// the default step.
	WalkStep float64

	// IntPeriod is the wrap-around period for integer nodes. Zero
	// means the default period.
	IntPeriod int64
}

// NewPlantPolicy returns a PlantPolicy seeded with the given seed, so
// the generated float walk is reproducible.
func NewPlantPolicy(seed int64) *PlantPolicy {
	return &PlantPolicy{rng: rand.New(rand.NewSource(seed))}
}

// Next implements UpdatePolicy.
func (p *PlantPolicy) Next(_ nodeid.ID, valueType addrspace.ValueType, current any) (any, bool) {
	switch valueType {
	case addrspace.TypeFloat:
		step := p.WalkStep
		if step == 0 {
			step = defaultWalkStep
		}
		v, _ := current.(float64)
		return v + (p.rng.Float64()*2-1)*step, true

	case addrspace.TypeInt:
		period := p.IntPeriod
		if period <= 0 {
			period = defaultIntPeriod
		}
		v, _ := current.(int64)
		return (v + 1) % period, true

	case addrspace.TypeBool:
		v, _ := current.(bool)
		return !v, true

	default:
		return nil, false
	}
}
