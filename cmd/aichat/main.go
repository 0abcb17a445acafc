// Package main is the entry point for the aichat terminal client.
// It initializes configuration, logging and services, and runs the Bubble Tea program.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aichat/internal/app"
	"github.com/j-veylop/aichat/internal/config"
	"github.com/j-veylop/aichat/internal/logger"
	"github.com/j-veylop/aichat/internal/services"
	"github.com/j-veylop/aichat/internal/ui/tabs/analytics"
	"github.com/j-veylop/aichat/internal/ui/tabs/auth"
	"github.com/j-veylop/aichat/internal/ui/tabs/chat"
	"github.com/j-veylop/aichat/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The TUI owns the terminal, so records only go to the log file.
	log, err := logger.New(logger.Options{
		Dir:     cfg.LogsDir,
		Level:   cfg.LogLevel,
		Console: io.Discard,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = log.Close() }()

	log.Info("starting", "version", version.GetVersion(), "commit", version.GetCommit())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcManager, err := services.NewManager(ctx, cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	// Tabs are indexed by app.TabID.
	state := model.GetState()
	model.SetTabs([]app.Tab{
		auth.New(state),
		chat.New(state),
		analytics.New(state, cfg),
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	log.Info("stopped")
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`aichat - terminal chat client for OpenRouter models

Usage:
  aichat [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  Enter           Send message / submit
  Alt+Enter       New line
  Ctrl+N/Ctrl+P   Next/previous model
  Ctrl+L          Clear chat history
  Ctrl+S          Save chat history to JSON
  Tab/Shift+Tab   Switch between Chat and Analytics
  e               Save analytics to JSON (Analytics tab)
  Ctrl+R          Refresh data
  F1              Toggle help
  Ctrl+C          Quit

Environment Variables:
  OPENROUTER_API_KEY  API key (written to .env on first login)
  CHAT_DB_PATH        SQLite database path (default: chat_cache.db)
  HISTORY_LIMIT       Messages shown on startup (default: 50)
  EXPORTS_DIR         Directory for JSON exports (default: exports)
  LOGS_DIR            Directory for daily log files (default: logs)
  LOG_LEVEL           debug, info, warn or error (default: info)
  MONITOR_SCHEDULE    Resource sampling schedule (default: @every 1m)
  BALANCE_SCHEDULE    Balance polling schedule (default: @every 5m)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/aichat/.env
  - ~/.aichat/.env`)
}
