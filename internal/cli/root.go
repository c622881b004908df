// Package cli provides the command-line interface for Kestrel.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kestrel-data/kestrel/internal/config"
	"github.com/kestrel-data/kestrel/pkg/adapter"
	"github.com/kestrel-data/kestrel/pkg/dialect"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kestrel",
		Short: "Kestrel - Data Quality Profiler",
		Long: `Kestrel profiles database tables for completeness, uniqueness, and
distribution metrics, detects drift between profiling runs, and validates
tables against declarative rule files across SQL backends.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Data quality profiling for SQL backends
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./kestrel.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newProfileCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newRulesCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// connectTarget opens an adapter for the configured target. The caller owns
// the returned adapter and must Close it.
func connectTarget(cmd *cobra.Command) (adapter.Adapter, error) {
	if err := cfg.Target.Validate(); err != nil {
		return nil, err
	}

	adapterCfg := cfg.Target.AdapterConfig()
	a, err := adapter.NewAdapter(adapterCfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(cmd.Context(), adapterCfg); err != nil {
		return nil, fmt.Errorf("connecting to %s target: %w", cfg.Target.Type, err)
	}
	return a, nil
}

// targetDialect resolves the dialect for the configured target type without
// requiring a connection.
func targetDialect() *dialect.Dialect {
	return dialect.ForToken(cfg.Target.Type)
}

// resolveOutputMode maps "auto" to text on a terminal and json when piped.
func resolveOutputMode(mode string) string {
	switch mode {
	case "text", "json":
		return mode
	default:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return "text"
		}
		return "json"
	}
}

// newLogger builds the CLI logger: warnings and errors by default, full debug
// detail with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
