// Command plantsim-client observes a running simulator server.
//
// In its default mode the client polls the configured nodes at the
// configured interval and prints each round. With -interactive it
// offers a command prompt for ad hoc reads, writes and subscriptions.
//
// Usage:
//
//	plantsim-client -config <file> [flags]
//
// Flags:
//
//	-config string      Configuration file path (INI or YAML, required)
//	-protocol string    Protocol adapter: uaspace, modbus, mqtt (default "uaspace")
//	-log-level string   Log level: debug, info, warn, error (default "warn")
//	-interactive        Start an interactive command prompt
//
// Examples:
//
//	# Poll the demo server until interrupted
//	plantsim-client -config client.ini
//
//	# Inspect the server interactively
//	plantsim-client -config client.ini -interactive
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
	"time"

	"github.com/openplantsim/plantsim-go/pkg/adapters"
	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/log"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/version"
)

func main() {
	var (
		configPath   string
		protocolName string
		logLevel     string
		interactive  bool
		showVersion  bool
	)
	flag.StringVar(&configPath, "config", "", "Configuration file path (INI or YAML)")
	flag.StringVar(&protocolName, "protocol", adapters.NameUASpace, "Protocol adapter: uaspace, modbus, mqtt")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.BoolVar(&interactive, "interactive", false, "Start an interactive command prompt")
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

	cfg, err := config.LoadClient(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	reg := adapters.NewRegistry()
	client, err := reg.Client(protocolName, protocol.Options{Logger: logger})
	if err != nil {
		stdlog.Fatalf("Failed to create adapter: %v (available: %v)", err, reg.Names())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Connect(ctx, cfg); err != nil {
		stdlog.Fatalf("Failed to connect: %v", err)
	}
	defer func() {
		if err := client.Disconnect(); err != nil {
			stdlog.Printf("Error disconnecting: %v", err)
		}
	}()

	if interactive {
		runInteractive(ctx, stop, client, cfg)
		return
	}

	runPollLoop(ctx, client, cfg)
}

// runPollLoop polls the configured nodes until the context is cancelled.
func runPollLoop(ctx context.Context, client protocol.ClientAdapter, cfg config.ClientConfig) {
	fmt.Printf("Polling %d nodes from %s every %s\n", len(cfg.NodeIDs), cfg.Endpoint, cfg.PollInterval)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		results, err := client.Poll(ctx)
		if err != nil {
			stdlog.Printf("Poll failed: %v", err)
			return
		}
		printResults(os.Stdout, results)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
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
