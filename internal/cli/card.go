package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mapgrid-network/mapgrid/internal/client"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cardCmd)
}

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Fetch a server's agent card",
	RunE:  runCard,
}

func runCard(cmd *cobra.Command, args []string) error {
	c := client.New(client.Config{BaseURL: serverURL, APIKey: clientAPIKey})

	agentCard, err := c.AgentCard(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Name:        %s\n", agentCard.Name)
	fmt.Printf("Version:     %s\n", agentCard.Version)
	fmt.Printf("Schema:      %s\n", agentCard.SchemaVersion)
	fmt.Printf("Description: %s\n", agentCard.Description)
	fmt.Printf("Auth:        %s (%s)\n", agentCard.Auth.Type, agentCard.Auth.HeaderName)
	fmt.Println("Tasks:")
	for _, task := range agentCard.Tasks {
		fmt.Printf("  %-16s in: %s  out: %s\n",
			task.Type, joinFormats(task.InputFormats), joinFormats(task.OutputFormats))
	}

	return nil
}

func joinFormats[T ~string](formats []T) string {
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
