package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func flags(cmd *cobra.Command) (addr string, timeout time.Duration) {
	addr, _ = cmd.Flags().GetString("addr")
	timeout, _ = cmd.Flags().GetDuration("timeout")
	return
}

func httpClientFor(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// decodeOrError decodes a 2xx JSON body into v, or returns the uniform
// {detail} envelope's message as an error for non-2xx responses.
func decodeOrError(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if jsonErr := json.Unmarshal(body, &detail); jsonErr == nil && detail.Detail != "" {
			return fmt.Errorf("%s: %s", resp.Status, detail.Detail)
		}
		return fmt.Errorf("%s: %s", resp.Status, string(body))
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(body, v)
}
