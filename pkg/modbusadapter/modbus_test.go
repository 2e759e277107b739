package modbusadapter

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/simonvetter/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
)

// The modbus listener offers no way to learn an ephemeral port, so the
// tests bind fixed high ports.
const (
	testServerAddr = "127.0.0.1:15502"
	testClientAddr = "127.0.0.1:15503"
	testEncodeAddr = "127.0.0.1:15504"
)

var testNodes = []addrspace.NodeDefinition{
	{ID: nodeid.MustParse("ns=2;s=Temperature"), Name: "Temperature", Type: addrspace.TypeFloat, Initial: 21.5},
	{ID: nodeid.MustParse("ns=2;i=1001"), Name: "Counter", Type: addrspace.TypeInt, Initial: int64(-7)},
	{ID: nodeid.MustParse("ns=2;s=Running"), Name: "Running", Type: addrspace.TypeBool, Initial: true},
}

func startServer(t *testing.T, addr string) (*Server, *addrspace.Store) {
	t.Helper()
	store := addrspace.NewStore()
	srv := NewServer(protocol.Options{})
	cfg := config.ServerConfig{
		Endpoint: "modbus-tcp://" + addr,
		Nodes:    testNodes,
	}
	require.NoError(t, srv.Start(context.Background(), cfg, store))
	t.Cleanup(func() { srv.Stop() })
	return srv, store
}

func rawClient(t *testing.T, addr string) *modbus.ModbusClient {
	t.Helper()
	mc, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     "tcp://" + addr,
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, mc.Open())
	t.Cleanup(func() { mc.Close() })
	return mc
}

func TestValueCodec(t *testing.T) {
	tests := []struct {
		name  string
		typ   addrspace.ValueType
		value any
	}{
		{"float", addrspace.TypeFloat, 21.5},
		{"negative float", addrspace.TypeFloat, -0.25},
		{"int", addrspace.TypeInt, int64(42)},
		{"negative int", addrspace.TypeInt, int64(-7)},
		{"bool true", addrspace.TypeBool, true},
		{"bool false", addrspace.TypeBool, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := encodeValue(tt.typ, tt.value)
			require.NoError(t, err)

			hi, lo := splitWords(slot)
			back, err := decodeValue(tt.typ, joinWords(hi, lo))
			require.NoError(t, err)
			assert.Equal(t, tt.value, back)
		})
	}

	t.Run("string unrepresentable", func(t *testing.T) {
		_, err := encodeValue(addrspace.TypeString, "x")
		assert.Error(t, err)
	})
}

func TestIntSaturatesAt32Bits(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  int64
	}{
		{"above max", 3000000000, math.MaxInt32},
		{"below min", -3000000000, math.MinInt32},
		{"max fits", math.MaxInt32, math.MaxInt32},
		{"min fits", math.MinInt32, math.MinInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := encodeValue(addrspace.TypeInt, tt.value)
			require.NoError(t, err)

			back, err := decodeValue(addrspace.TypeInt, slot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, back)
		})
	}
}

func TestSlotRangeBounds(t *testing.T) {
	l, err := newLayout([]addrspace.NodeDefinition{
		{ID: nodeid.MustParse("ns=2;s=A"), Name: "A", Type: addrspace.TypeInt, Initial: int64(0)},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		addr     uint16
		quantity uint16
		ok       bool
	}{
		{"full map", 0, RegistersPerNode, true},
		{"past end", RegistersPerNode, RegistersPerNode, false},
		{"unaligned addr", 1, RegistersPerNode, false},
		{"unaligned quantity", 0, 1, false},
		{"zero quantity", 0, 0, false},
		// addr+quantity overflows uint16 but is legal on the wire.
		{"window ending at 0xffff", 65534, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := l.slotRange(tt.addr, tt.quantity)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestStringNodeFailsStartup(t *testing.T) {
	srv := NewServer(protocol.Options{})
	cfg := config.ServerConfig{
		Endpoint: "modbus-tcp://" + testServerAddr,
		Nodes: []addrspace.NodeDefinition{
			{ID: nodeid.MustParse("ns=2;s=Label"), Name: "Label", Type: addrspace.TypeString, Initial: "x"},
		},
	}
	err := srv.Start(context.Background(), cfg, addrspace.NewStore())
	assert.ErrorIs(t, err, protocol.ErrConfig)
}

func TestServeRegisterMap(t *testing.T) {
	_, store := startServer(t, testServerAddr)
	mc := rawClient(t, testServerAddr)

	t.Run("read all slots", func(t *testing.T) {
		regs, err := mc.ReadRegisters(0, 6, modbus.HOLDING_REGISTER)
		require.NoError(t, err)

		temp, err := decodeValue(addrspace.TypeFloat, joinWords(regs[0], regs[1]))
		require.NoError(t, err)
		assert.Equal(t, 21.5, temp)

		count, err := decodeValue(addrspace.TypeInt, joinWords(regs[2], regs[3]))
		require.NoError(t, err)
		assert.Equal(t, int64(-7), count)

		running, err := decodeValue(addrspace.TypeBool, joinWords(regs[4], regs[5]))
		require.NoError(t, err)
		assert.Equal(t, true, running)
	})

	t.Run("misaligned read rejected", func(t *testing.T) {
		_, err := mc.ReadRegisters(1, 2, modbus.HOLDING_REGISTER)
		assert.ErrorIs(t, err, modbus.ErrIllegalDataAddress)
	})

	t.Run("out of range read rejected", func(t *testing.T) {
		_, err := mc.ReadRegisters(6, 2, modbus.HOLDING_REGISTER)
		assert.ErrorIs(t, err, modbus.ErrIllegalDataAddress)
	})

	t.Run("write goes through the store", func(t *testing.T) {
		slot, err := encodeValue(addrspace.TypeFloat, 30.5)
		require.NoError(t, err)
		hi, lo := splitWords(slot)
		require.NoError(t, mc.WriteRegisters(0, []uint16{hi, lo}))

		value, _, err := store.Read(nodeid.MustParse("ns=2;s=Temperature"))
		require.NoError(t, err)
		assert.Equal(t, 30.5, value)
	})
}

func TestClientPoll(t *testing.T) {
	startServer(t, testClientAddr)

	client := NewClient(protocol.Options{})
	cfg := config.ClientConfig{
		Endpoint:     "modbus-tcp://" + testClientAddr,
		PollInterval: 100 * time.Millisecond,
		NodeIDs: []nodeid.ID{
			testNodes[0].ID,
			testNodes[1].ID,
			testNodes[2].ID,
			nodeid.MustParse("ns=2;s=BeyondTheMap"),
		},
	}
	require.NoError(t, client.Connect(context.Background(), cfg))
	defer client.Disconnect()

	results, err := client.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Raw register contents: the client has no type information.
	floatSlot, _ := encodeValue(addrspace.TypeFloat, 21.5)
	assert.Equal(t, int64(floatSlot), results[0].Value)

	intSlot, _ := encodeValue(addrspace.TypeInt, int64(-7))
	assert.Equal(t, int64(intSlot), results[1].Value)

	assert.Equal(t, int64(1), results[2].Value)

	assert.True(t, results[3].NotFound)
	assert.Nil(t, results[3].Value)
}

func TestClientSubscribeUnsupported(t *testing.T) {
	client := NewClient(protocol.Options{})
	err := client.Subscribe(context.Background(), func(protocol.PollResult) {})
	assert.ErrorIs(t, err, protocol.ErrSubscribeUnsupported)
}

func TestClientDisconnectBeforeConnect(t *testing.T) {
	client := NewClient(protocol.Options{})
	assert.NoError(t, client.Disconnect())
}

func TestEncodeRoundTripThroughStore(t *testing.T) {
	_, store := startServer(t, testEncodeAddr)
	mc := rawClient(t, testEncodeAddr)

	// Write an int through the registers and read it back.
	slot, err := encodeValue(addrspace.TypeInt, int64(123456))
	require.NoError(t, err)
	hi, lo := splitWords(slot)
	require.NoError(t, mc.WriteRegisters(2, []uint16{hi, lo}))

	value, _, err := store.Read(nodeid.MustParse("ns=2;i=1001"))
	require.NoError(t, err)
	assert.Equal(t, int64(123456), value)

	regs, err := mc.ReadRegisters(2, 2, modbus.HOLDING_REGISTER)
	require.NoError(t, err)
	assert.Equal(t, slot, joinWords(regs[0], regs[1]))
}
