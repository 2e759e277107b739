package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/openplantsim/plantsim-go/pkg/config"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
	"github.com/openplantsim/plantsim-go/pkg/protocol"
	"github.com/openplantsim/plantsim-go/pkg/wire"
)

// browser is the optional browse capability of a client adapter.
type browser interface {
	Browse(ctx context.Context) (*wire.BrowseResult, error)
}

// runInteractive drives the command prompt until quit or interrupt.
func runInteractive(ctx context.Context, cancel context.CancelFunc, client protocol.ClientAdapter, cfg config.ClientConfig) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "plantsim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Failed to create prompt: %v\n", err)
		return
	}
	defer rl.Close()

	printHelp(rl.Stdout())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			printHelp(rl.Stdout())

		case "poll", "p":
			cmdPoll(ctx, rl.Stdout(), client)

		case "read", "r":
			cmdRead(ctx, rl.Stdout(), client, cfg, args)

		case "write", "w":
			cmdWrite(ctx, rl.Stdout(), client, args)

		case "subscribe", "sub":
			cmdSubscribe(ctx, rl.Stdout(), client)

		case "browse", "b":
			cmdBrowse(ctx, rl.Stdout(), client)

		case "quit", "exit", "q":
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
PlantSim Client Commands:
  poll                      - Poll all configured nodes once
  read <node-id>            - Read a single configured node
  write <node-id> <value>   - Write a node value server-side
  subscribe                 - Stream pushed value changes (Ctrl-C to stop)
  browse                    - List the server's address space
  help                      - Show this help
  quit                      - Exit client

  Node ID Format:
    ns=<namespace>;s=<name> or ns=<namespace>;i=<number>`)
}

func cmdPoll(ctx context.Context, w io.Writer, client protocol.ClientAdapter) {
	results, err := client.Poll(ctx)
	if err != nil {
		fmt.Fprintf(w, "Poll failed: %v\n", err)
		return
	}
	printResults(w, results)
}

func cmdRead(ctx context.Context, w io.Writer, client protocol.ClientAdapter, cfg config.ClientConfig, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: read <node-id>")
		return
	}
	id, err := nodeid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(w, "Invalid node ID: %v\n", err)
		return
	}

	results, err := client.Poll(ctx)
	if err != nil {
		fmt.Fprintf(w, "Read failed: %v\n", err)
		return
	}
	for _, result := range results {
		if result.ID == id {
			printResults(w, []protocol.PollResult{result})
			return
		}
	}
	fmt.Fprintf(w, "%s is not in the configured node set %v\n", id, cfg.NodeIDs)
}

func cmdWrite(ctx context.Context, w io.Writer, client protocol.ClientAdapter, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(w, "Usage: write <node-id> <value>")
		return
	}

	writer, ok := client.(protocol.Writer)
	if !ok {
		fmt.Fprintln(w, "This protocol does not support writes")
		return
	}

	id, err := nodeid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(w, "Invalid node ID: %v\n", err)
		return
	}

	value := inferValue(strings.Join(args[1:], " "))
	if err := writer.Write(ctx, id, value); err != nil {
		fmt.Fprintf(w, "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Wrote %v to %s\n", value, id)
}

func cmdSubscribe(ctx context.Context, w io.Writer, client protocol.ClientAdapter) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := client.Subscribe(subCtx, func(result protocol.PollResult) {
		printResults(w, []protocol.PollResult{result})
	})
	if err != nil {
		fmt.Fprintf(w, "Subscribe failed: %v\n", err)
		return
	}

	fmt.Fprintln(w, "Subscribed; streaming changes until interrupted")
	<-subCtx.Done()
}

func cmdBrowse(ctx context.Context, w io.Writer, client protocol.ClientAdapter) {
	b, ok := client.(browser)
	if !ok {
		fmt.Fprintln(w, "This protocol does not support browsing")
		return
	}

	result, err := b.Browse(ctx)
	if err != nil {
		fmt.Fprintf(w, "Browse failed: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Namespace: %s\n", result.NamespaceURI)
	for _, node := range result.Nodes {
		fmt.Fprintf(w, "  %-30s %-20s %s\n", node.NodeID, node.Name, node.Type)
	}
}

// printResults writes one line per poll result.
func printResults(w io.Writer, results []protocol.PollResult) {
	for _, result := range results {
		if result.NotFound {
			fmt.Fprintf(w, "  %-30s <not found>\n", result.ID)
			continue
		}
		fmt.Fprintf(w, "  %-30s %-12v %s\n", result.ID, result.Value,
			result.Timestamp.Format("15:04:05.000"))
	}
}

// inferValue parses a literal the way server configs do: int first,
// then float, then bool, falling back to the raw string.
func inferValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
