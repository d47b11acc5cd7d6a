// Package cli implements the mapgrid command-line interface using Cobra.
// Subcommands cover serving the agent and exercising it as a client.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mapgrid",
	Short: "MapGrid — A2A mapping agent",
	Long: `MapGrid is an A2A-compliant agent that exposes mapping capabilities
(geocoding, directions, places, distance matrices) as a task-based protocol.

Run "mapgrid serve" to start the server, or use the client subcommands
(card, task) against a running instance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	// Local .env files carry the API keys during development.
	_ = godotenv.Load()

	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
