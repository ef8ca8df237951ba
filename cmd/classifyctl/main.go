// Command classifyctl is a CLI client for the document classification ingest API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "classifyctl",
	Short: "classifyctl talks to a running document classification ingest API",
	Long: `classifyctl is a command-line client for the classification ingest API:
submit files, poll their status, and control worker scaling.`,
}

func init() {
	rootCmd.PersistentFlags().String("addr", "http://localhost:8080", "ingest API base URL")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")
}
