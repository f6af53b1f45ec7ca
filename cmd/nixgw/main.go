package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/nixgw/internal/api"
	"github.com/mattjoyce/nixgw/internal/config"
	"github.com/mattjoyce/nixgw/internal/dispatch"
	"github.com/mattjoyce/nixgw/internal/doctor"
	"github.com/mattjoyce/nixgw/internal/format"
	"github.com/mattjoyce/nixgw/internal/history"
	"github.com/mattjoyce/nixgw/internal/lock"
	"github.com/mattjoyce/nixgw/internal/log"
	"github.com/mattjoyce/nixgw/internal/logstore"
	"github.com/mattjoyce/nixgw/internal/runner"
	"github.com/mattjoyce/nixgw/internal/storage"
	"github.com/mattjoyce/nixgw/internal/tui/watch"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "run":
		os.Exit(runOnce(args))
	case "history":
		os.Exit(runHistory(args))
	case "doctor":
		os.Exit(runDoctor(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("nixgw version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`nixgw - Nix command gateway with bounded output logs

Usage:
  nixgw <command> [flags]

Commands:
  serve            Start the gateway service in foreground
  run <op> [json]  Execute one operation locally and print the result
  history          Show the persistent execution journal
  doctor           Validate configuration and environment
  config lock      Authorize current config (write integrity checksum)
  config check     Validate config syntax and integrity
  watch            Terminal dashboard over a running gateway
  version          Show version information
  help             Show this help message
`)
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

// buildDispatcher wires the execution pipeline from config. The returned
// closer releases the history database, if any.
func buildDispatcher(ctx context.Context, cfg *config.Config) (*dispatch.Dispatcher, *logstore.Store, func(), error) {
	store := logstore.New(cfg.Limits.MaxLogs)
	formatter := format.New(store, cfg.Limits.MaxOutputLines, cfg.Limits.MaxOutputChars)
	r := runner.New(cfg.Nix.Binary, cfg.Nix.ExtraArgs)

	closer := func() {}
	var journal dispatch.Journal
	if cfg.History.Enabled {
		db, err := storage.OpenSQLite(ctx, cfg.History.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open history database: %w", err)
		}
		journal = history.New(db)
		closer = func() { _ = db.Close() }
	}

	disp := dispatch.New(r, store, formatter, journal, cfg.Nix.WorkDir)
	return disp, store, closer, nil
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("nixgw starting", "version", version)

	if !cfg.API.Enabled {
		logger.Error("api.enabled is false; serve has no transport to expose")
		return 1
	}

	pidLockPath := filepath.Join(filepath.Dir(cfg.History.Path), "nixgw.pid")
	pidLock, err := lock.Acquire(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disp, store, closeHistory, err := buildDispatcher(ctx, cfg)
	if err != nil {
		logger.Error("failed to build dispatcher", "error", err)
		return 1
	}
	defer closeHistory()

	apiServer := api.New(api.Config{
		Listen: cfg.API.Listen,
		APIKey: cfg.API.Auth.APIKey,
	}, disp, store, log.WithComponent("api"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	logger.Info("nixgw running (press Ctrl+C to stop)", "listen", cfg.API.Listen)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("api server failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("nixgw stopped")
	return 0
}

func runOnce(args []string) int {
	var configPath string
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")

	// Positional op name and JSON args may appear before flags.
	var positional, remaining []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && len(positional) < 2 {
			positional = append(positional, arg)
		} else {
			remaining = append(remaining, arg)
		}
	}
	if err := fs.Parse(remaining); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if len(positional) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: nixgw run <op> [json-args] [--config PATH]\n")
		return 1
	}
	op := positional[0]
	rawArgs := "{}"
	if len(positional) > 1 {
		rawArgs = positional[1]
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	ctx := context.Background()
	disp, _, closeHistory, err := buildDispatcher(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dispatcher: %v\n", err)
		return 1
	}
	defer closeHistory()

	out, err := disp.Execute(ctx, op, json.RawMessage(rawArgs))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(out)
	return 0
}

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 20, "Maximum records to show")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(os.Stderr, "History is disabled in configuration")
		return 1
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history database: %v\n", err)
		return 1
	}
	defer db.Close()

	records, err := history.New(db).Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	if len(records) == 0 {
		fmt.Println("No history recorded.")
		return 0
	}
	for _, r := range records {
		fmt.Printf("%s  %-18s exit=%d %6dms  %s\n",
			r.CreatedAt, r.Op, r.ExitCode, r.DurationMs, r.Command)
	}
	return 0
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()

	if *jsonOut {
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	} else {
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nixgw config <lock|check> [flags]")
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	fs := flag.NewFlagSet(action, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(actionArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	resolved := *configPath
	if resolved == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		resolved = discovered
	}
	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		resolved = filepath.Join(resolved, "config.yaml")
	}

	switch action {
	case "lock":
		if err := config.GenerateChecksums(resolved); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
			return 1
		}
		fmt.Printf("Locked configuration: %s\n", resolved)
		return 0
	case "check":
		if _, err := config.Load(resolved); err != nil {
			fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
			return 1
		}
		fmt.Println("Config check PASSED.")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8080", "Gateway API base URL")
	apiKey := fs.String("key", os.Getenv("NIXGW_API_KEY"), "API key (defaults to $NIXGW_API_KEY)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	p := tea.NewProgram(watch.New(*apiURL, *apiKey))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		return 1
	}
	return 0
}
