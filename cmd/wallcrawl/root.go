package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wallcrawl/pkg/config"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/ui"
)

var (
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	timeout    time.Duration
	userAgent  string
)

var rootCmd = &cobra.Command{
	Use:   "wallcrawl",
	Short: "Discover wallpaper images from web pages, Pinterest, Google Photos and Drive",
	Long: `wallcrawl finds candidate wallpaper images behind a URL or a search phrase
and returns them one page at a time.

Supported sources:
  - Pinterest boards, profiles and pin searches (or plain search phrases)
  - Google Photos shared albums
  - Google Drive shared folders
  - Any other HTML page (generic <img> scan)

Results are written to stdout; logs and status go to stderr.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.wallcrawl.yaml or ~/.config/wallcrawl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress status output except errors")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout (e.g. 15s)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "override the User-Agent header")

	rootCmd.SetVersionTemplate(`wallcrawl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves configuration from every source, merges the global
// flags plus extra, and initializes the global logger.
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{
		"timeout":    timeout,
		"user-agent": userAgent,
		"log-level":  logLevel,
	}
	if quiet && logLevel == "" {
		flags["log-level"] = "error"
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("wallcrawl starting")

	return cfg, nil
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
