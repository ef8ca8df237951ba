// Package orchestrator implements the scaling controller's orchestrator
// port by shelling out to a configurable command template.
package orchestrator

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"text/template"

	"github.com/fairyhunter13/docclassify/internal/domain"
)

// ShellOrchestrator applies a desired replica count by rendering a command
// template with {{.Count}} and running it via os/exec, mirroring the
// original Python's docker-compose subprocess call.
type ShellOrchestrator struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// New parses cmdTemplate (e.g. "docker compose up --scale worker={{.Count}} -d").
func New(cmdTemplate string, logger *slog.Logger) (*ShellOrchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.New("scale_cmd").Parse(cmdTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: parse orchestrator command template: %v", domain.ErrOrchestrator, err)
	}
	return &ShellOrchestrator{tmpl: tmpl, logger: logger}, nil
}

var _ domain.Orchestrator = (*ShellOrchestrator)(nil)

// SetReplicas renders and runs the shell command for the target count.
func (o *ShellOrchestrator) SetReplicas(ctx domain.Context, count int) error {
	var buf bytes.Buffer
	if err := o.tmpl.Execute(&buf, struct{ Count int }{Count: count}); err != nil {
		return fmt.Errorf("%w: render scale command: %v", domain.ErrOrchestrator, err)
	}

	fields := strings.Fields(buf.String())
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty scale command", domain.ErrOrchestrator)
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		o.logger.Warn("orchestrator command failed", slog.String("command", buf.String()), slog.String("output", string(output)), slog.Any("error", err))
		return fmt.Errorf("%w: %v", domain.ErrOrchestrator, err)
	}

	o.logger.Info("orchestrator scaled workers", slog.Int("count", count), slog.String("command", buf.String()))
	return nil
}
