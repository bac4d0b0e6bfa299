package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/perennial"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of perennial",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("perennial version %s\n", strings.TrimSpace(perennial.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
