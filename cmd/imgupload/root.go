package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/config"
	ilog "github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/log"
)

// NewRootCmd creates the root command for imgupload.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgupload",
		Short: "Migrate product images from MongoDB to Cloud Storage",
		Long: `imgupload reads product records from a MongoDB collection, downloads the
images they reference and stores each one in a bucket as {productId}_{type}.jpg.

Images already present in the bucket are never downloaded or written again,
so an interrupted run can simply be started again.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().String("log-file", "", "Write logs to this file as well as stderr")
	cmd.PersistentFlags().String("log-dir", "", "Directory for the timestamped run log (default: XDG state dir)")
	cmd.PersistentFlags().Bool("no-log-file", false, "Only log to stderr")
	cmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, cancel := signalContext()
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// printError writes the fatal error line, plus a hint for configuration errors.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if config.IsConfigError(err) {
		fmt.Fprintln(w, "Settings come from the environment, --config and flags; see 'imgupload run --help'.")
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n[imgupload] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// loadConfig layers defaults, the YAML file, the environment and override.
// The result is validated.
func loadConfig(cmd *cobra.Command, override config.Config) (config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		fileCfg, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("configuration error: %w", err)
		}
		cfg = fileCfg
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, fmt.Errorf("configuration error: %w", err)
	}

	cfg = cfg.Merge(override)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger builds the run logger from the global flags.
func newLogger(cmd *cobra.Command, withFile bool) (*ilog.Logger, error) {
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	jsonLogs, _ := flags.GetBool("log-json")
	file, _ := flags.GetString("log-file")
	dir, _ := flags.GetString("log-dir")
	noFile, _ := flags.GetBool("no-log-file")

	if dir == "" {
		dir = ilog.DefaultDir()
	}

	return ilog.New(ilog.Options{
		Verbose: verbose,
		JSON:    jsonLogs,
		Output:  cmd.ErrOrStderr(),
		File:    file,
		Dir:     dir,
		NoFile:  noFile || !withFile,
	})
}
