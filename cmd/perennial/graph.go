package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/perennial/internal/presentation/graph"
	filestore "github.com/aretw0/perennial/pkg/adapters/file"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/ports"
)

var graphCmd = &cobra.Command{
	Use:   "graph [calendar]",
	Short: "Export a calendar as a Mermaid gantt chart",
	Long: `Loads a calendar checkpoint and prints a Mermaid gantt diagram of its
working windows, confirmed bookings, and requests still awaiting their
payment outcome. The output pastes straight into any Mermaid renderer.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		calendarID, _ := cmd.Flags().GetString("calendar")
		if !cmd.Flags().Changed("calendar") && len(args) > 0 {
			calendarID = args[0]
		}

		store := booking.NewStore(filestore.New(dir))
		state, err := store.Load(cmd.Context(), calendarID)
		if errors.Is(err, ports.ErrNotFound) {
			fmt.Printf("No checkpoint for calendar %q in %s\n", calendarID, dir)
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("Error loading calendar: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(calendarID, state))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("dir", ".perennial/demo", "Directory holding the checkpoints")
	graphCmd.Flags().String("calendar", "garden", "Calendar to render")
}
