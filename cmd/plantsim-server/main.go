// Command plantsim-server runs a simulated plant device.
//
// The server loads an address space from a configuration file, starts
// a protocol adapter serving it, and runs the node update engine that
// perturbs node values over time.
//
// Usage:
//
//	plantsim-server -config <file> [flags]
//
// Flags:
//
//	-config string      Configuration file path (INI or YAML, required)
//	-protocol string    Protocol adapter: uaspace, modbus, mqtt (default "uaspace")
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-advertise          Advertise the server via mDNS
//
// Examples:
//
//	# Serve the demo plant over the native protocol
//	plantsim-server -config demo.ini
//
//	# Serve the same address space as a Modbus slave
//	plantsim-server -config demo.ini -protocol modbus
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openplantsim/plantsim-go/pkg/adapters"
	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/discovery"
	"github.com/openplantsim/plantsim-go/pkg/engine"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/version"
)

func main() {
	var (
		configPath   string
		protocolName string
		logLevel     string
		advertise    bool
		showVersion  bool
	)
	flag.StringVar(&configPath, "config", "", "Configuration file path (INI or YAML)")
	flag.StringVar(&protocolName, "protocol", adapters.NameUASpace, "Protocol adapter: uaspace, modbus, mqtt")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&advertise, "advertise", false, "Advertise the server via mDNS")
	flag.BoolVar(&showVersion, "version", false, "Print the protocol version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Current)
		return
	}

	if configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := setupLogging(logLevel)
	if err != nil {
		stdlog.Fatalf("Invalid log level: %v", err)
	}

	cfg, err := config.LoadServer(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	reg := adapters.NewRegistry()
	srv, err := reg.Server(protocolName, protocol.Options{Logger: logger})
	if err != nil {
		stdlog.Fatalf("Failed to create adapter: %v (available: %v)", err, reg.Names())
	}

	store := addrspace.NewStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, cfg, store); err != nil {
		stdlog.Fatalf("Failed to start server: %v", err)
	}

	eng := engine.New(store, cfg.UpdateInterval, nil, logger)
	if err := eng.Start(); err != nil {
		_ = srv.Stop()
		stdlog.Fatalf("Failed to start update engine: %v", err)
	}

	stdlog.Printf("Serving %d nodes over %s at %s", store.Len(), protocolName, cfg.Endpoint)

	var adv *discovery.Advertiser
	if advertise {
		adv = discovery.NewAdvertiser(discovery.DefaultAdvertiserConfig())
		if err := adv.Advertise(advertiseInfo(cfg, protocolName)); err != nil {
			stdlog.Printf("Warning: mDNS advertising failed: %v", err)
			adv = nil
		} else {
			stdlog.Printf("Advertising %s via mDNS", discovery.ServiceType)
		}
	}

	<-ctx.Done()
	stdlog.Println("Shutting down...")

	if adv != nil {
		adv.Stop()
	}
	eng.Stop()
	if err := srv.Stop(); err != nil {
		stdlog.Printf("Error stopping server: %v", err)
	}
}

func setupLogging(level string) (log.Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown level %q", level)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	return log.NewSlogLogger(slog.New(handler)), nil
}

func advertiseInfo(cfg config.ServerConfig, protocolName string) *discovery.ServerInfo {
	info := &discovery.ServerInfo{
		ServerName:   cfg.ServerName,
		Protocol:     protocolName,
		NamespaceURI: cfg.NamespaceURI,
		NodeCount:    len(cfg.Nodes),
	}
	if info.ServerName == "" {
		info.ServerName = "PlantSim"
	}
	if endpoint, err := protocol.ParseEndpoint(cfg.Endpoint); err == nil {
		info.Port = uint16(endpoint.Port)
	}
	return info
}
