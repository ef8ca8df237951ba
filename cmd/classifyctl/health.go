package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check ingest API and broker health",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	addr, timeout := flags(cmd)

	resp, err := httpClientFor(timeout).Get(addr + "/health")
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}

	var result struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := decodeOrError(resp, &result); err != nil {
		return err
	}

	fmt.Printf("status=%s\n", result.Status)
	for name, state := range result.Components {
		fmt.Printf("  %s: %s\n", name, state)
	}
	return nil
}
