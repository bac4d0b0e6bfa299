package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/perennial/internal/logging"
	filestore "github.com/aretw0/perennial/pkg/adapters/file"
	"github.com/aretw0/perennial/pkg/adapters/gateway"
	"github.com/aretw0/perennial/pkg/adapters/mcp"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/runner"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the booking service as an MCP Server so agents can check
availability, place holds, and deliver payment outcomes as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse (--sse): Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		calendarDir, _ := cmd.Flags().GetString("calendar-dir")
		sse, _ := cmd.Flags().GetBool("sse")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr so they never corrupt JSON-RPC framing on stdout.
		logger := logging.New(slog.LevelInfo)
		slog.SetDefault(logger)

		store := booking.NewStore(filestore.New(dataDir))
		gw := gateway.New(gateway.WithLogger(logger))
		host := booking.NewRunner(store, gw, booking.NewSystemWithDefaultSchedule,
			runner.WithLogger(logger))

		if calendarDir != "" {
			if err := seedCalendars(cmd.Context(), logger, calendarDir, store); err != nil {
				log.Fatalf("Error seeding calendars: %v", err)
			}
		}

		srv := mcp.NewServer(host, mcp.WithLogger(logger))

		if !sse {
			log.SetOutput(os.Stderr)
			slog.Info("Starting Perennial MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
			return
		}

		slog.Info("Starting Perennial MCP Server (SSE)", "port", port)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ServeSSE(ctx, port); err != nil {
			if err != http.ErrServerClosed {
				slog.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		}
		slog.Info("MCP Server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("data-dir", ".perennial/sessions", "Directory holding session checkpoints")
	mcpCmd.Flags().String("calendar-dir", "", "Seed calendars from schedule documents in this directory")
	mcpCmd.Flags().Bool("sse", false, "Serve over SSE instead of stdio")
	mcpCmd.Flags().Int("port", 8090, "Port to listen on (only for SSE)")
}
