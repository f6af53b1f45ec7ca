// Package doctor validates nixgw configuration and environment setup.
package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/nixgw/internal/config"
	"github.com/mattjoyce/nixgw/internal/runner"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates configuration against the local environment.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.checkNixBinary(r)
	d.checkLimits(r)
	d.checkAPIConfig(r)
	d.checkHistoryPath(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// checkNixBinary verifies the nix binary resolves and answers --version.
func (d *Doctor) checkNixBinary(r *Result) {
	bin := d.cfg.Nix.Binary
	if bin == "" {
		d.addError(r, "nix", "nix.binary", "nix.binary is required")
		return
	}

	if _, err := exec.LookPath(bin); err != nil {
		d.addError(r, "nix", "nix.binary",
			fmt.Sprintf("nix binary %q not found on PATH: %v", bin, err))
		return
	}

	res := runner.New(bin, nil).Run(context.Background(), []string{"--version"}, "")
	if res.ExitCode != 0 {
		d.addWarning(r, "nix", "nix.binary",
			fmt.Sprintf("%s --version exited %d: %s", bin, res.ExitCode, strings.TrimSpace(res.Stderr)))
	}
}

// checkLimits sanity-checks the output log tunables.
func (d *Doctor) checkLimits(r *Result) {
	l := d.cfg.Limits
	if l.MaxLogs <= 0 {
		d.addError(r, "limits", "limits.max_logs", "max_logs must be positive")
	}
	if l.MaxOutputLines <= 0 {
		d.addError(r, "limits", "limits.max_output_lines", "max_output_lines must be positive")
	}
	if l.MaxOutputChars <= 0 {
		d.addError(r, "limits", "limits.max_output_chars", "max_output_chars must be positive")
	}
	if l.MaxOutputLines > 0 && l.MaxOutputLines < 10 {
		d.addWarning(r, "limits", "limits.max_output_lines",
			"very small line limit; nearly every command will be archived")
	}
}

// checkAPIConfig checks API server settings.
func (d *Doctor) checkAPIConfig(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required when API is enabled")
	}
	if d.cfg.API.Auth.APIKey == "" {
		d.addWarning(r, "api", "api.auth", "API enabled but no authentication configured")
	}
}

// checkHistoryPath checks the journal directory is writable.
func (d *Doctor) checkHistoryPath(r *Result) {
	if !d.cfg.History.Enabled {
		return
	}
	if d.cfg.History.Path == "" {
		d.addError(r, "history", "history.path", "history.path is required when history is enabled")
		return
	}

	dir := filepath.Dir(d.cfg.History.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.addError(r, "history", "history.path",
			fmt.Sprintf("cannot create history directory %s: %v", dir, err))
	}
}

// FormatHuman renders a result for terminal output.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid {
		b.WriteString("Status: OK\n")
	} else {
		b.WriteString("Status: FAILED\n")
	}

	if len(r.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, i := range r.Errors {
			fmt.Fprintf(&b, "  [%s] %s", i.Category, i.Message)
			if i.Field != "" {
				fmt.Fprintf(&b, " (%s)", i.Field)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, i := range r.Warnings {
			fmt.Fprintf(&b, "  [%s] %s", i.Category, i.Message)
			if i.Field != "" {
				fmt.Fprintf(&b, " (%s)", i.Field)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// FormatJSON renders a result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal doctor result: %w", err)
	}
	return string(data), nil
}
