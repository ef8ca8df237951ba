package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <task_id>",
	Short: "Check the status of a classification task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	addr, timeout := flags(cmd)
	taskID := args[0]

	resp, err := httpClientFor(timeout).Get(addr + "/classification/" + taskID)
	if err != nil {
		return fmt.Errorf("status request: %w", err)
	}

	var result struct {
		TaskID     string  `json:"task_id"`
		Status     string  `json:"status"`
		Category   string  `json:"predicted_type,omitempty"`
		Confidence float64 `json:"confidence,omitempty"`
		Error      string  `json:"error,omitempty"`
	}
	if err := decodeOrError(resp, &result); err != nil {
		return err
	}

	fmt.Printf("task_id=%s status=%s", result.TaskID, result.Status)
	if result.Category != "" {
		fmt.Printf(" category=%s confidence=%.3f", result.Category, result.Confidence)
	}
	if result.Error != "" {
		fmt.Printf(" error=%s", result.Error)
	}
	fmt.Println()
	return nil
}
