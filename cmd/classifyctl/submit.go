package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a file for classification",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	addr, timeout := flags(cmd)
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy file contents: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, addr+"/classify_file", &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := httpClientFor(timeout).Do(req)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	var result struct {
		TaskID   string `json:"task_id"`
		Filename string `json:"filename"`
		Status   string `json:"status"`
	}
	if err := decodeOrError(resp, &result); err != nil {
		return err
	}

	fmt.Printf("task_id=%s filename=%s status=%s\n", result.TaskID, result.Filename, result.Status)
	return nil
}
