// Package nix defines the closed set of gateway operations and their
// mechanical translation into nix command lines. Each operation carries its
// own typed argument struct; the mapping functions are pure so they can be
// tested without spawning anything.
package nix

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned when an operation name is not part of the
// dispatch surface. This is a hard error at the dispatch boundary, distinct
// from a failed command.
var ErrUnknownOperation = errors.New("unknown operation")

// Command is one decoded, runnable operation.
type Command interface {
	// CommandLine returns the ordered nix argument list, excluding the
	// binary itself and any configured global flags.
	CommandLine() []string
}

// BuildArgs invokes `nix build`.
type BuildArgs struct {
	Installable string `json:"installable"`
	NoLink      bool   `json:"no_link"`
	Rebuild     bool   `json:"rebuild"`
}

func (a BuildArgs) CommandLine() []string {
	args := []string{"build"}
	if a.Installable != "" {
		args = append(args, a.Installable)
	}
	if a.NoLink {
		args = append(args, "--no-link")
	}
	if a.Rebuild {
		args = append(args, "--rebuild")
	}
	return args
}

// RunArgs invokes `nix run`. Trailing Args are passed to the program after
// the `--` separator.
type RunArgs struct {
	Installable string   `json:"installable"`
	Args        []string `json:"args"`
}

func (a RunArgs) CommandLine() []string {
	args := []string{"run"}
	if a.Installable != "" {
		args = append(args, a.Installable)
	}
	if len(a.Args) > 0 {
		args = append(args, "--")
		args = append(args, a.Args...)
	}
	return args
}

// DevelopArgs invokes `nix develop --command sh -c <command>`.
type DevelopArgs struct {
	Installable string `json:"installable"`
	Command     string `json:"command"`
}

func (a DevelopArgs) CommandLine() []string {
	args := []string{"develop"}
	if a.Installable != "" {
		args = append(args, a.Installable)
	}
	if a.Command != "" {
		args = append(args, "--command", "sh", "-c", a.Command)
	}
	return args
}

// FlakeCheckArgs invokes `nix flake check`.
type FlakeCheckArgs struct {
	Path string `json:"path"`
}

func (a FlakeCheckArgs) CommandLine() []string {
	args := []string{"flake", "check"}
	if a.Path != "" {
		args = append(args, a.Path)
	}
	return args
}

// FlakeUpdateArgs invokes `nix flake update`.
type FlakeUpdateArgs struct {
	Path string `json:"path"`
}

func (a FlakeUpdateArgs) CommandLine() []string {
	args := []string{"flake", "update"}
	if a.Path != "" {
		args = append(args, "--flake", a.Path)
	}
	return args
}

// FlakeShowArgs invokes `nix flake show`.
type FlakeShowArgs struct {
	Path string `json:"path"`
}

func (a FlakeShowArgs) CommandLine() []string {
	args := []string{"flake", "show"}
	if a.Path != "" {
		args = append(args, a.Path)
	}
	return args
}

// FlakeInitArgs invokes `nix flake init`, optionally from a template.
type FlakeInitArgs struct {
	Template string `json:"template"`
}

func (a FlakeInitArgs) CommandLine() []string {
	args := []string{"flake", "init"}
	if a.Template != "" {
		args = append(args, "-t", a.Template)
	}
	return args
}

// SearchArgs invokes `nix search`. Installable defaults to nixpkgs.
type SearchArgs struct {
	Installable string `json:"installable"`
	Query       string `json:"query"`
}

func (a SearchArgs) CommandLine() []string {
	installable := a.Installable
	if installable == "" {
		installable = "nixpkgs"
	}
	args := []string{"search", installable}
	if a.Query != "" {
		args = append(args, a.Query)
	}
	return args
}

// EvalArgs invokes `nix eval`, either on an installable or a raw expression.
type EvalArgs struct {
	Installable string `json:"installable"`
	Expr        string `json:"expr"`
	JSON        bool   `json:"json"`
}

func (a EvalArgs) CommandLine() []string {
	args := []string{"eval"}
	if a.Expr != "" {
		args = append(args, "--expr", a.Expr)
	} else if a.Installable != "" {
		args = append(args, a.Installable)
	}
	if a.JSON {
		args = append(args, "--json")
	}
	return args
}

// ShellArgs invokes `nix shell` with a set of packages, optionally running a
// command inside the shell.
type ShellArgs struct {
	Packages []string `json:"packages"`
	Command  string   `json:"command"`
}

func (a ShellArgs) CommandLine() []string {
	args := []string{"shell"}
	args = append(args, a.Packages...)
	if a.Command != "" {
		args = append(args, "--command", "sh", "-c", a.Command)
	}
	return args
}

// StoreGCArgs invokes `nix store gc`.
type StoreGCArgs struct {
	Max string `json:"max"`
}

func (a StoreGCArgs) CommandLine() []string {
	args := []string{"store", "gc"}
	if a.Max != "" {
		args = append(args, "--max", a.Max)
	}
	return args
}

// Decode resolves an operation name and raw JSON arguments into a typed
// Command. The switch is the single place the runnable surface is
// enumerated; retrieval operations (nix_get_log, nix_list_logs) are not
// runnable and are handled by the dispatcher directly.
func Decode(op string, raw json.RawMessage) (Command, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	unmarshal := func(v any) error {
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("invalid arguments for %s: %w", op, err)
		}
		return nil
	}

	switch op {
	case "nix_build":
		var a BuildArgs
		return a, unmarshal(&a)
	case "nix_run":
		var a RunArgs
		return a, unmarshal(&a)
	case "nix_develop":
		var a DevelopArgs
		return a, unmarshal(&a)
	case "nix_flake_check":
		var a FlakeCheckArgs
		return a, unmarshal(&a)
	case "nix_flake_update":
		var a FlakeUpdateArgs
		return a, unmarshal(&a)
	case "nix_flake_show":
		var a FlakeShowArgs
		return a, unmarshal(&a)
	case "nix_flake_init":
		var a FlakeInitArgs
		return a, unmarshal(&a)
	case "nix_search":
		var a SearchArgs
		return a, unmarshal(&a)
	case "nix_eval":
		var a EvalArgs
		return a, unmarshal(&a)
	case "nix_shell":
		var a ShellArgs
		return a, unmarshal(&a)
	case "nix_store_gc":
		var a StoreGCArgs
		return a, unmarshal(&a)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

// OpInfo describes one operation for discovery endpoints.
type OpInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Operations lists the full dispatch surface, including the retrieval
// operations that bypass the process runner.
func Operations() []OpInfo {
	return []OpInfo{
		{Name: "nix_build", Description: "Build a flake installable"},
		{Name: "nix_run", Description: "Run a flake app or package"},
		{Name: "nix_develop", Description: "Run a command inside a development shell"},
		{Name: "nix_flake_check", Description: "Check a flake for errors"},
		{Name: "nix_flake_update", Description: "Update flake lock file inputs"},
		{Name: "nix_flake_show", Description: "Show the outputs of a flake"},
		{Name: "nix_flake_init", Description: "Initialize a flake, optionally from a template"},
		{Name: "nix_search", Description: "Search packages by name or description"},
		{Name: "nix_eval", Description: "Evaluate a Nix expression or installable"},
		{Name: "nix_shell", Description: "Run a command in an ephemeral shell with packages"},
		{Name: "nix_store_gc", Description: "Garbage-collect the Nix store"},
		{Name: "nix_get_log", Description: "Fetch archived output by log id, with optional grep/head/tail"},
		{Name: "nix_list_logs", Description: "List recently archived command logs"},
	}
}
