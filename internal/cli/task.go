package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mapgrid-network/mapgrid/internal/client"
	"github.com/mapgrid-network/mapgrid/internal/domain"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8000", "MapGrid server URL")
	rootCmd.PersistentFlags().StringVar(&clientAPIKey, "api-key", os.Getenv("MAPGRID_API_KEY"), "API key for authenticated routes")

	taskRunCmd.Flags().StringVar(&taskInputJSON, "json", "", "Structured JSON input instead of text")
	taskRunCmd.Flags().StringVar(&taskOutputFormat, "format", "", "Requested output format (text, application/json, application/geo+json)")

	taskCmd.AddCommand(taskRunCmd)
	taskCmd.AddCommand(taskGetCmd)
	rootCmd.AddCommand(taskCmd)
}

var (
	serverURL        string
	clientAPIKey     string
	taskInputJSON    string
	taskOutputFormat string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, execute, and inspect tasks on a server",
}

var taskRunCmd = &cobra.Command{
	Use:   "run TYPE [TEXT]",
	Short: "Create a task and execute it immediately",
	Long: `Create a task of the given type and execute it in one step.

Input is either free text ("mapgrid task run geocode 'Baker Street'")
or structured JSON via --json ('{"origin": "Boston", "destination": "NYC"}').`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTaskRun,
}

func runTaskRun(cmd *cobra.Command, args []string) error {
	req := client.CreateTaskRequest{
		Type:         domain.TaskType(args[0]),
		OutputFormat: domain.Format(taskOutputFormat),
	}

	switch {
	case taskInputJSON != "":
		if !json.Valid([]byte(taskInputJSON)) {
			return fmt.Errorf("--json value is not valid JSON")
		}
		req.Input = domain.Payload{Format: domain.FormatJSON, Content: json.RawMessage(taskInputJSON)}
	case len(args) == 2:
		req.Input = domain.TextPayload(args[1])
	default:
		return fmt.Errorf("provide input text or --json")
	}

	c := client.New(client.Config{BaseURL: serverURL, APIKey: clientAPIKey})

	done, err := c.RunTask(context.Background(), req)
	if err != nil {
		return err
	}

	return printTask(done)
}

var taskGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Fetch a task record by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskGet,
}

func runTaskGet(cmd *cobra.Command, args []string) error {
	c := client.New(client.Config{BaseURL: serverURL, APIKey: clientAPIKey})

	task, err := c.GetTask(context.Background(), args[0])
	if err != nil {
		return err
	}

	return printTask(task)
}

func printTask(task *domain.Task) error {
	fmt.Printf("ID:     %s\n", task.ID)
	fmt.Printf("Type:   %s\n", task.Type)
	fmt.Printf("Status: %s\n", task.Status)
	if task.Error != "" {
		fmt.Printf("Error:  %s\n", task.Error)
	}
	if task.Output == nil {
		return nil
	}

	if task.Output.Format == domain.FormatText {
		text, err := task.Output.Text()
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	var pretty json.RawMessage = task.Output.Content
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
