// Package cli implements the paramstore command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/paramstore"
	"github.com/meigma/paramstore/cmd/paramstore/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "paramstore",
	Short: "Fetch and publish zk-SNARK parameter files",
	Long: `Paramstore manages a catalog of large, versioned zk-SNARK parameter files
(proving and verifying keys).

It downloads parameter files from a distribution endpoint, verifies them
against a trusted manifest, and publishes new parameter files into that
manifest after computing their canonical digests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().String("manifest", "", "Manifest file path (default: <cache-dir>/manifest.json)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory holding parameter files")
	rootCmd.PersistentFlags().String("base-url", "", "Remote distribution endpoint base URL")
	rootCmd.PersistentFlags().String("token", "", "Session token passed through to the remote store")
	rootCmd.Version = version

	//nolint:errcheck // flags are registered above, binding cannot fail
	viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	//nolint:errcheck
	viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	//nolint:errcheck
	viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	//nolint:errcheck
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

// initConfig loads the config file and environment overrides.
func initConfig() {
	if configDir, err := config.Dir(); err == nil {
		viper.AddConfigPath(configDir)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("PARAMSTORE")
	viper.AutomaticEnv()

	// Missing config file is fine; flags and env cover everything.
	//nolint:errcheck
	viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// newClient creates a paramstore client from config and flags.
func newClient() (*paramstore.Client, error) {
	cacheDir := viper.GetString("cache_dir")
	if cacheDir == "" {
		var err error
		cacheDir, err = config.CacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache directory: %w", err)
		}
	}

	opts := []paramstore.ClientOption{
		paramstore.WithCacheDir(cacheDir),
	}
	if manifest := viper.GetString("manifest"); manifest != "" {
		opts = append(opts, paramstore.WithManifestPath(manifest))
	}
	if baseURL := viper.GetString("base_url"); baseURL != "" {
		opts = append(opts, paramstore.WithBaseURL(baseURL))
	}
	if token := viper.GetString("token"); token != "" {
		opts = append(opts, paramstore.WithSessionToken(token))
	}
	if workers := viper.GetInt("fetch.workers"); workers > 0 {
		opts = append(opts, paramstore.WithWorkers(workers))
	}
	if retries := viper.GetInt("fetch.retries"); retries > 0 {
		opts = append(opts, paramstore.WithRetries(retries))
	}
	if verbose {
		opts = append(opts, paramstore.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}
	return paramstore.NewClient(opts...)
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// formatError converts paramstore errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, paramstore.ErrManifestCorrupt):
		return fmt.Sprintf("Error: manifest is corrupt: %v", err)
	case errors.Is(err, paramstore.ErrPublishConflict):
		return fmt.Sprintf("Error: %v (rerun with --yes to overwrite)", err)
	case errors.Is(err, paramstore.ErrUnauthorized):
		return "Error: remote store rejected the session token"
	case errors.Is(err, paramstore.ErrNotFound):
		return fmt.Sprintf("Error: not found: %v", err)
	case errors.Is(err, paramstore.ErrNoRemote):
		return "Error: no remote configured (set --base-url or base_url in config)"
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
