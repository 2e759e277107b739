package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

func newTestStore(t *testing.T) *addrspace.Store {
	t.Helper()
	store := addrspace.NewStore()
	defs := []addrspace.NodeDefinition{
		{ID: nodeid.MustParse("ns=2;s=Level"), Name: "Level", Type: addrspace.TypeFloat, Initial: 10.0},
		{ID: nodeid.MustParse("ns=2;s=Count"), Name: "Count", Type: addrspace.TypeInt, Initial: int64(0)},
		{ID: nodeid.MustParse("ns=2;s=Running"), Name: "Running", Type: addrspace.TypeBool, Initial: false},
		{ID: nodeid.MustParse("ns=2;s=Label"), Name: "Label", Type: addrspace.TypeString, Initial: "plant"},
	}
	for _, def := range defs {
		require.NoError(t, store.Register(def))
	}
	return store
}

func TestTickAppliesPolicy(t *testing.T) {
	store := newTestStore(t)
	eng := New(store, 0, NewPlantPolicy(1), nil)

	eng.Tick()

	level, _, err := store.Read(nodeid.MustParse("ns=2;s=Level"))
	require.NoError(t, err)
	assert.NotEqual(t, 10.0, level)
	assert.InDelta(t, 10.0, level.(float64), defaultWalkStep)

	count, _, err := store.Read(nodeid.MustParse("ns=2;s=Count"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	running, _, err := store.Read(nodeid.MustParse("ns=2;s=Running"))
	require.NoError(t, err)
	assert.Equal(t, true, running)

	label, _, err := store.Read(nodeid.MustParse("ns=2;s=Label"))
	require.NoError(t, err)
	assert.Equal(t, "plant", label)
}

func TestIntCycleWraps(t *testing.T) {
	store := newTestStore(t)
	eng := New(store, 0, NewPlantPolicy(1), nil)

	for i := 0; i < defaultIntPeriod; i++ {
		eng.Tick()
	}

	count, _, err := store.Read(nodeid.MustParse("ns=2;s=Count"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBoolTogglesEveryTick(t *testing.T) {
	store := newTestStore(t)
	eng := New(store, 0, NewPlantPolicy(1), nil)

	eng.Tick()
	eng.Tick()

	running, _, err := store.Read(nodeid.MustParse("ns=2;s=Running"))
	require.NoError(t, err)
	assert.Equal(t, false, running)
}

func TestSeededPolicyIsReproducible(t *testing.T) {
	id := nodeid.MustParse("ns=2;s=Level")

	run := func() float64 {
		store := newTestStore(t)
		eng := New(store, 0, NewPlantPolicy(42), nil)
		for i := 0; i < 10; i++ {
			eng.Tick()
		}
		v, _, err := store.Read(id)
		require.NoError(t, err)
		return v.(float64)
	}

	assert.Equal(t, run(), run())
}

func TestZeroIntervalDisablesLoop(t *testing.T) {
	store := newTestStore(t)
	eng := New(store, 0, NewPlantPolicy(1), nil)

	require.NoError(t, eng.Start())
	assert.True(t, eng.Running())

	time.Sleep(50 * time.Millisecond)

	count, _, err := store.Read(nodeid.MustParse("ns=2;s=Count"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	eng.Stop()
	assert.False(t, eng.Running())
}

func TestLoopTicksOnInterval(t *testing.T) {
	store := newTestStore(t)
	eng := New(store, 5*time.Millisecond, NewPlantPolicy(1), nil)

	changed := make(chan struct{}, 64)
	store.OnChange(func(id nodeid.ID, value any, ts time.Time) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	require.NoError(t, eng.Start())
	defer eng.Stop()

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no update observed within 2s")
	}
}

func TestStartTwiceFails(t *testing.T) {
	eng := New(newTestStore(t), 0, nil, nil)
	require.NoError(t, eng.Start())
	assert.ErrorIs(t, eng.Start(), ErrAlreadyRunning)
	eng.Stop()

	// A stopped engine can be started again.
	require.NoError(t, eng.Start())
	eng.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	eng := New(newTestStore(t), time.Millisecond, nil, nil)
	require.NoError(t, eng.Start())
	eng.Stop()
	eng.Stop()
}

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) snapshot() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

// failingPolicy emits a value of the wrong type for one node so the
// store rejects the write.
type failingPolicy struct{ inner UpdatePolicy }

func (p failingPolicy) Next(id nodeid.ID, valueType addrspace.ValueType, current any) (any, bool) {
	if id.Text == "Count" {
		return "not an int", true
	}
	return p.inner.Next(id, valueType, current)
}

func TestTickSkipsFailingNode(t *testing.T) {
	store := newTestStore(t)
	logger := &recordingLogger{}
	eng := New(store, 0, failingPolicy{inner: NewPlantPolicy(1)}, logger)

	eng.Tick()

	// The failing node kept its value, the others still updated.
	count, _, err := store.Read(nodeid.MustParse("ns=2;s=Count"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	running, _, err := store.Read(nodeid.MustParse("ns=2;s=Running"))
	require.NoError(t, err)
	assert.Equal(t, true, running)

	events := logger.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, log.CategoryEngine, events[0].Category)
	assert.Equal(t, "ns=2;s=Count", events[0].Node)
	assert.ErrorIs(t, events[0].Err, addrspace.ErrTypeMismatch)
}
