package cli

import (
	"fmt"

	"github.com/kestrel-data/kestrel/internal/validator"
	"github.com/kestrel-data/kestrel/pkg/core"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var (
		rulesFile        string
		generateDefaults bool
		saveDefaults     string
		failOnError      bool
	)

	cmd := &cobra.Command{
		Use:   "validate <table>",
		Short: "Run validation rules against a table",
		Long: `Validate executes rules against a table and reports one pass/fail result
per rule. Rules come from a YAML or JSON rule file (--rules), or are
synthesized from the table's schema (--generate-defaults).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			if rulesFile == "" && !generateDefaults {
				return fmt.Errorf("either --rules or --generate-defaults is required")
			}

			a, err := connectTarget(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var rules []core.Rule
			if rulesFile != "" {
				rules, err = validator.LoadRulesFromFile(rulesFile)
				if err != nil {
					return err
				}
			} else {
				meta, err := a.TableMetadata(cmd.Context(), table)
				if err != nil {
					return fmt.Errorf("introspecting table %s: %w", table, err)
				}
				rules = validator.DefaultRules(table, meta, targetDialect())
				if saveDefaults != "" {
					if err := validator.ExportRules(saveDefaults, rules); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d rules written to %s\n", len(rules), saveDefaults)
				}
			}

			results := validator.NewRunner(a, logger).Run(cmd.Context(), rules)

			if resolveOutputMode(cfg.Output) == "json" {
				if err := renderJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				renderResults(cmd.OutOrStdout(), results)
			}

			if failOnError {
				if failed := countFailed(results); failed > 0 {
					return fmt.Errorf("%d of %d rules failed", failed, len(results))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rule file to run (YAML or JSON)")
	cmd.Flags().BoolVar(&generateDefaults, "generate-defaults", false, "Synthesize default rules from the table schema")
	cmd.Flags().StringVar(&saveDefaults, "save-defaults", "", "Write synthesized default rules to a file before running them")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any rule fails")

	return cmd
}

func countFailed(results []core.Result) int {
	failed := 0
	for _, r := range results {
		if !r.IsValid {
			failed++
		}
	}
	return failed
}
