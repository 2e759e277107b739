package plantsim_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/adapters"
	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/engine"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/uaspace"
)

func integrationNodes() []addrspace.NodeDefinition {
	return []addrspace.NodeDefinition{
		{
			ID:      nodeid.MustParse("ns=2;s=Temperature"),
			Name:    "Temperature",
			Type:    addrspace.TypeFloat,
			Initial: 21.5,
		},
		{
			ID:      nodeid.MustParse("ns=2;s=Counter"),
			Name:    "Counter",
			Type:    addrspace.TypeInt,
			Initial: int64(0),
		},
		{
			ID:      nodeid.MustParse("ns=2;s=Label"),
			Name:    "Label",
			Type:    addrspace.TypeString,
			Initial: "idle",
		},
	}
}

// startSimulator brings up a full simulator: store, server adapter and
// update engine. It returns a connected client and the server config.
func startSimulator(t *testing.T, updateInterval time.Duration) (*uaspace.Client, config.ServerConfig) {
	t.Helper()

	cfg := config.ServerConfig{
		Endpoint:       "opc.tcp://127.0.0.1:0",
		NamespaceURI:   "urn:plantsim:integration",
		ServerName:     "IntegrationSim",
		UpdateInterval: updateInterval,
		Nodes:          integrationNodes(),
	}

	store := addrspace.NewStore()
	srv := uaspace.NewServer(protocol.Options{})

	if err := srv.Start(context.Background(), cfg, store); err != nil {
		t.Fatalf("server start failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })

	eng := engine.New(store, updateInterval, nil, nil)
	if err := eng.Start(); err != nil {
		t.Fatalf("engine start failed: %v", err)
	}
	t.Cleanup(eng.Stop)

	clientCfg := config.ClientConfig{
		Endpoint:     "opc.tcp://" + srv.Addr(),
		PollInterval: 100 * time.Millisecond,
	}
	for _, def := range cfg.Nodes {
		clientCfg.NodeIDs = append(clientCfg.NodeIDs, def.ID)
	}

	client := uaspace.NewClient(protocol.Options{})
	if err := client.Connect(context.Background(), clientCfg); err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect() })

	return client, cfg
}

// TestE2E_EngineDrivesPolledValues checks that the update engine's
// perturbations are visible through a protocol round trip.
func TestE2E_EngineDrivesPolledValues(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, _ := startSimulator(t, 50*time.Millisecond)
	ctx := context.Background()

	first, err := client.Poll(ctx)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("got %d results, want 3", len(first))
	}
	for _, result := range first {
		if result.NotFound {
			t.Fatalf("node %s not found", result.ID)
		}
	}

	// The counter cycles every engine tick, so a later poll must differ.
	deadline := time.Now().Add(3 * time.Second)
	counterID := nodeid.MustParse("ns=2;s=Counter")
	for time.Now().Before(deadline) {
		results, err := client.Poll(ctx)
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if counterValue(t, results, counterID) != counterValue(t, first, counterID) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("counter never changed; update engine not reaching the wire")
}

func counterValue(t *testing.T, results []protocol.PollResult, id nodeid.ID) int64 {
	t.Helper()
	for _, result := range results {
		if result.ID == id {
			v, ok := result.Value.(int64)
			if !ok {
				t.Fatalf("counter value %v (%T) is not int64", result.Value, result.Value)
			}
			return v
		}
	}
	t.Fatalf("counter %s missing from results", id)
	return 0
}

// TestE2E_WriteRoundTrip checks that a client write lands in the store
// and comes back on the next poll. String nodes stay static under the
// engine, so the written value survives.
func TestE2E_WriteRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, _ := startSimulator(t, 50*time.Millisecond)
	ctx := context.Background()
	labelID := nodeid.MustParse("ns=2;s=Label")

	if err := client.Write(ctx, labelID, "running"); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	results, err := client.Poll(ctx)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	for _, result := range results {
		if result.ID == labelID {
			if result.Value != "running" {
				t.Errorf("label = %v, want %q", result.Value, "running")
			}
			return
		}
	}
	t.Fatalf("label %s missing from results", labelID)
}

// TestE2E_SubscriptionStreamsEngineUpdates checks the push path: the
// engine perturbs values, the server coalesces them into reports and
// the client surfaces them through the subscription callback.
func TestE2E_SubscriptionStreamsEngineUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, _ := startSimulator(t, 50*time.Millisecond)
	ctx := context.Background()
	counterID := nodeid.MustParse("ns=2;s=Counter")

	updates := make(chan protocol.PollResult, 64)
	err := client.Subscribe(ctx, func(result protocol.PollResult) {
		select {
		case updates <- result:
		default:
		}
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Wait for two distinct counter values, proving pushed change
	// reports rather than a single priming snapshot.
	seen := make(map[int64]bool)
	deadline := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case result := <-updates:
			if result.ID != counterID {
				continue
			}
			if v, ok := result.Value.(int64); ok {
				seen[v] = true
			}
		case <-deadline:
			t.Fatalf("saw %d distinct counter values, want 2", len(seen))
		}
	}
}

// TestE2E_RegistryBuiltAdapters drives the same scenario through the
// protocol registry, the way the commands construct adapters.
func TestE2E_RegistryBuiltAdapters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	reg := adapters.NewRegistry()

	srv, err := reg.Server(adapters.NameUASpace, protocol.Options{})
	if err != nil {
		t.Fatalf("server lookup failed: %v", err)
	}

	cfg := config.ServerConfig{
		Endpoint:     "opc.tcp://127.0.0.1:0",
		NamespaceURI: "urn:plantsim:integration",
		Nodes:        integrationNodes(),
	}
	store := addrspace.NewStore()
	if err := srv.Start(context.Background(), cfg, store); err != nil {
		t.Fatalf("server start failed: %v", err)
	}
	defer func() { _ = srv.Stop() }()

	addrSrv, ok := srv.(*uaspace.Server)
	if !ok {
		t.Fatalf("registry returned %T, want *uaspace.Server", srv)
	}

	client, err := reg.Client(adapters.NameUASpace, protocol.Options{})
	if err != nil {
		t.Fatalf("client lookup failed: %v", err)
	}

	clientCfg := config.ClientConfig{
		Endpoint:     fmt.Sprintf("opc.tcp://%s", addrSrv.Addr()),
		PollInterval: 100 * time.Millisecond,
		NodeIDs:      []nodeid.ID{nodeid.MustParse("ns=2;s=Temperature")},
	}
	if err := client.Connect(context.Background(), clientCfg); err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer func() { _ = client.Disconnect() }()

	results, err := client.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(results) != 1 || results[0].NotFound {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Value != 21.5 {
		t.Errorf("temperature = %v, want 21.5", results[0].Value)
	}
}
