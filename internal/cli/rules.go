package cli

import (
	"fmt"

	"github.com/kestrel-data/kestrel/internal/validator"
	"github.com/spf13/cobra"
)

func newRulesCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "rules <table>",
		Short: "Generate default validation rules for a table",
		Long: `Rules inspects a table's schema and synthesizes validation rules from
naming and type heuristics: uniqueness for keys, non-null checks, value
range checks for amounts and dates, format checks for emails and phone
numbers, and more.

With --out, the rules are written to a YAML or JSON file that validate
--rules accepts; edit the file to tune thresholds before running it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]

			a, err := connectTarget(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			meta, err := a.TableMetadata(cmd.Context(), table)
			if err != nil {
				return fmt.Errorf("introspecting table %s: %w", table, err)
			}
			rules := validator.DefaultRules(table, meta, targetDialect())

			if outFile != "" {
				if err := validator.ExportRules(outFile, rules); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rules written to %s\n", len(rules), outFile)
				return nil
			}

			if resolveOutputMode(cfg.Output) == "json" {
				return renderJSON(cmd.OutOrStdout(), rules)
			}
			renderRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Write rules to a YAML or JSON file")

	return cmd
}
