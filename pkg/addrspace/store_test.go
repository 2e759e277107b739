package addrspace

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

func tempDef() NodeDefinition {
	return NodeDefinition{
		ID:      nodeid.MustParse("ns=2;s=Temperature"),
		Name:    "Temperature",
		Type:    TypeFloat,
		Initial: 20.0,
	}
}

func TestRegisterThenRead(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	v, ts, err := s.Read(nodeid.MustParse("ns=2;s=Temperature"))
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
	assert.False(t, ts.IsZero())
}

func TestRegisterDuplicateKeepsFirst(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	second := tempDef()
	second.Initial = 99.0
	err := s.Register(second)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	v, _, err := s.Read(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v, "store must retain the first registration")
}

func TestReadUnknownNode(t *testing.T) {
	s := NewStore()
	_, _, err := s.Read(nodeid.MustParse("ns=2;s=Nope"))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	before := time.Now()
	id := nodeid.MustParse("ns=2;s=Temperature")
	require.NoError(t, s.Write(id, 25.5))

	v, ts, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, 25.5, v)
	assert.False(t, ts.Before(before), "timestamp must not precede the write")
}

func TestWriteCoercesIntegerToFloat(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	id := nodeid.MustParse("ns=2;s=Temperature")
	require.NoError(t, s.Write(id, int64(21)))

	v, _, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, 21.0, v)
}

func TestWriteTypeMismatchLeavesStateUnchanged(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	id := nodeid.MustParse("ns=2;s=Temperature")
	_, tsBefore, err := s.Read(id)
	require.NoError(t, err)

	err = s.Write(id, "not a float")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	v, tsAfter, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
	assert.Equal(t, tsBefore, tsAfter, "rejected write must not touch the timestamp")
}

func TestWriteUnknownNode(t *testing.T) {
	s := NewStore()
	err := s.Write(nodeid.MustParse("ns=2;s=Nope"), 1.0)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	ids := []string{"ns=2;s=C", "ns=2;s=A", "ns=2;s=B"}
	for _, raw := range ids {
		require.NoError(t, s.Register(NodeDefinition{
			ID:      nodeid.MustParse(raw),
			Name:    raw,
			Type:    TypeInt,
			Initial: int64(0),
		}))
	}

	defs := s.List()
	require.Len(t, defs, 3)
	for i, raw := range ids {
		assert.Equal(t, raw, defs[i].ID.String())
	}
}

func TestListIsACopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	defs := s.List()
	require.NoError(t, s.Register(NodeDefinition{
		ID:      nodeid.MustParse("ns=2;s=Pressure"),
		Name:    "Pressure",
		Type:    TypeFloat,
		Initial: 1.0,
	}))
	assert.Len(t, defs, 1, "previously returned slice must not grow")
}

func TestRegisterNamespace(t *testing.T) {
	s := NewStore()
	first := s.RegisterNamespace("http://example.org/plant")
	assert.Equal(t, FirstNamespaceIndex, first)

	again := s.RegisterNamespace("http://example.org/plant")
	assert.Equal(t, first, again, "same URI must map to the same index")

	second := s.RegisterNamespace("http://example.org/other")
	assert.Equal(t, first+1, second)

	uri, ok := s.NamespaceURI(first)
	require.True(t, ok)
	assert.Equal(t, "http://example.org/plant", uri)
}

func TestOnChangeFiresAfterWrite(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))

	var (
		mu    sync.Mutex
		seen  []any
		times []time.Time
	)
	s.OnChange(func(id nodeid.ID, v any, ts time.Time) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
		times = append(times, ts)
	})

	id := nodeid.MustParse("ns=2;s=Temperature")
	require.NoError(t, s.Write(id, 21.0))
	require.NoError(t, s.Write(id, 22.0))

	// Rejected writes must not notify.
	_ = s.Write(id, "bad")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []any{21.0, 22.0}, seen)
	assert.True(t, !times[1].Before(times[0]), "change timestamps must be ordered per node")
}

func TestOnChangeRemoveStopsFanOut(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))
	id := nodeid.MustParse("ns=2;s=Temperature")

	var calls int
	remove := s.OnChange(func(nodeid.ID, any, time.Time) { calls++ })

	require.NoError(t, s.Write(id, 21.0))
	assert.Equal(t, 1, calls)

	remove()
	require.NoError(t, s.Write(id, 22.0))
	assert.Equal(t, 1, calls, "removed listener must not fire")

	// Removing twice is a no-op and leaves other listeners alone.
	var other int
	otherRemove := s.OnChange(func(nodeid.ID, any, time.Time) { other++ })
	defer otherRemove()
	remove()

	require.NoError(t, s.Write(id, 23.0))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, other)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(tempDef()))
	id := nodeid.MustParse("ns=2;s=Temperature")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Write(id, float64(base*1000+j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				v, _, err := s.Read(id)
				if err != nil {
					t.Error(err)
					return
				}
				if _, ok := v.(float64); !ok {
					t.Errorf("torn read: %v (%T)", v, v)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		typ     ValueType
		in      any
		want    any
		wantErr bool
	}{
		{"FloatFromFloat", TypeFloat, 1.5, 1.5, false},
		{"FloatFromUint64", TypeFloat, uint64(3), 3.0, false},
		{"IntFromUint64", TypeInt, uint64(7), int64(7), false},
		{"IntFromUint64Max", TypeInt, uint64(math.MaxInt64), int64(math.MaxInt64), false},
		{"IntRejectsUint64Overflow", TypeInt, uint64(math.MaxInt64) + 1, nil, true},
		{"IntRejectsFloat", TypeInt, 1.5, nil, true},
		{"StringExact", TypeString, "ok", "ok", false},
		{"StringRejectsInt", TypeString, 1, nil, true},
		{"BoolExact", TypeBool, true, true, false},
		{"BoolRejectsString", TypeBool, "true", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.typ, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValueType(t *testing.T) {
	for name, want := range map[string]ValueType{
		"float": TypeFloat, "double": TypeFloat,
		"int": TypeInt, "integer": TypeInt,
		"string": TypeString,
		"bool":   TypeBool, "boolean": TypeBool,
	} {
		got, err := ParseValueType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseValueType("decimal")
	assert.Error(t, err)
}

func TestRegisterRejectsBadDefinition(t *testing.T) {
	s := NewStore()

	err := s.Register(NodeDefinition{Name: "NoID", Type: TypeFloat, Initial: 0.0})
	assert.Error(t, err)

	err = s.Register(NodeDefinition{
		ID:      nodeid.MustParse("ns=2;s=BadInit"),
		Type:    TypeFloat,
		Initial: "zero",
	})
	assert.Error(t, err)

	assert.Equal(t, 0, s.Len())
}
