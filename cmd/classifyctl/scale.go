package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var scaleCmd = &cobra.Command{
	Use:   "scale <n>",
	Short: "Set the desired worker replica count",
	Args:  cobra.ExactArgs(1),
	RunE:  runScale,
}

func init() {
	rootCmd.AddCommand(scaleCmd)
}

func runScale(cmd *cobra.Command, args []string) error {
	addr, timeout := flags(cmd)

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid replica count %q: %w", args[0], err)
	}

	resp, err := httpClientFor(timeout).Post(fmt.Sprintf("%s/scaling/workers/%d", addr, n), "application/json", http.NoBody)
	if err != nil {
		return fmt.Errorf("scale request: %w", err)
	}

	var result struct {
		Status   string `json:"status"`
		Replicas int    `json:"replicas"`
	}
	if err := decodeOrError(resp, &result); err != nil {
		return err
	}

	fmt.Printf("status=%s replicas=%d\n", result.Status, result.Replicas)
	return nil
}
