package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/config"
	"github.com/PabloGalante/farmdash/internal/observability"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "farmdash",
	Short: "Niigata farm dashboard assistant",
	Long: `farmdash runs the conversational farming assistant of the Niigata farm
dashboard: an HTTP server with the assistant backend, the weather proxy and
the session relay, plus terminal clients that talk to it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		opts := observability.Options{Level: cfg.Log.Level}
		if verbose {
			opts.Level = "debug"
		}
		switch {
		case cmd.Name() == "chat":
			// the TUI owns the terminal
			opts.OutputPaths = []string{chatLogPath(cfg)}
		case cfg.Log.File != "":
			opts.OutputPaths = []string{cfg.Log.File}
		}

		logger, err = observability.Setup(opts)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func chatLogPath(c *config.Config) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(os.TempDir(), "farmdash-chat.log")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
