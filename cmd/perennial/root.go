package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "perennial",
	Short: "Perennial is a durable state machine engine for tracked side effects",
	Long: `Perennial runs deterministic state machines whose side effects are
tracked actions: every external operation is recorded in the state before
it is dispatched, and chased down again after a crash. The bundled booking
domain schedules appointments on weekly calendars with payment holds.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
