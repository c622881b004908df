package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kestrel-data/kestrel/internal/profiler"
	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/spf13/cobra"
)

func newProfileCommand() *cobra.Command {
	var (
		compareFile    string
		outFile        string
		includeSamples bool
	)

	cmd := &cobra.Command{
		Use:   "profile <table>",
		Short: "Profile a table for completeness, distribution, and drift",
		Long: `Profile computes quality metrics for one table: row and duplicate counts,
per-column null and distinct rates, numeric statistics, text patterns, date
ranges, most frequent values, and outliers.

With --compare, the new profile is diffed against a previous profile and
anomalies and schema shifts are reported alongside the metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]

			var historical *core.Profile
			if compareFile != "" {
				var err error
				historical, err = readProfileFile(compareFile)
				if err != nil {
					return err
				}
			}

			a, err := connectTarget(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := profiler.Options{
				SampleLimit:         cfg.Profile.SampleLimit,
				OutlierLimit:        cfg.Profile.OutlierLimit,
				TopValueLimit:       cfg.Profile.TopValueLimit,
				LargeTableThreshold: cfg.Profile.LargeTableThreshold,
				IncludeSamples:      cfg.Profile.IncludeSamples || includeSamples,
			}

			p, err := profiler.New(a, opts, logger).Profile(cmd.Context(), table, historical)
			if err != nil {
				return err
			}

			if outFile != "" {
				if err := writeProfileFile(outFile, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile written to %s\n", outFile)
				return nil
			}

			if resolveOutputMode(cfg.Output) == "json" {
				return renderJSON(cmd.OutOrStdout(), p)
			}
			renderProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&compareFile, "compare", "", "Previous profile JSON file to detect drift against")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the profile as JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&includeSamples, "include-samples", false, "Include raw row samples in the profile")

	return cmd
}

func readProfileFile(path string) (*core.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	var p core.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return &p, nil
}

func writeProfileFile(path string, p *core.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing profile %s: %w", path, err)
	}
	return nil
}
