// Package validator executes named validation rules against a database and
// synthesizes default rules from table structure.
//
// A rule is a scalar query plus a comparison; running one never aborts the
// batch. Query failures are captured on the individual result so one broken
// rule cannot mask the outcome of the others.
package validator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kestrel-data/kestrel/pkg/adapter"
	"github.com/kestrel-data/kestrel/pkg/core"
)

// Runner executes validation rules through one adapter, strictly in order.
type Runner struct {
	adapter adapter.Adapter
	logger  *slog.Logger
}

// NewRunner creates a rule runner. If logger is nil, a discard logger is used.
func NewRunner(a adapter.Adapter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{adapter: a, logger: logger}
}

// Run executes every rule and returns one result per rule, in input order.
// The returned slice always has len(rules) entries.
func (r *Runner) Run(ctx context.Context, rules []core.Rule) []core.Result {
	results := make([]core.Result, 0, len(rules))
	for i := range rules {
		rule := rules[i]
		rule.ApplyDefaults()
		result := r.runOne(ctx, rule)
		if result.Error != "" {
			r.logger.Warn("rule execution failed",
				slog.String("rule", rule.Name), slog.String("error", result.Error))
		} else if !result.IsValid {
			r.logger.Info("rule failed",
				slog.String("rule", rule.Name),
				slog.Any("actual", result.ActualValue),
				slog.Any("expected", result.ExpectedValue))
		}
		results = append(results, result)
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, rule core.Rule) core.Result {
	result := core.Result{
		RuleName:      rule.Name,
		ExpectedValue: rule.ExpectedValue,
		Description:   rule.Description,
	}

	if rule.Query == "" {
		result.Error = "rule has no query"
		return result
	}
	if !rule.Operator.Valid() {
		result.Error = fmt.Sprintf("unknown operator %q", rule.Operator)
		return result
	}

	actual, err := r.adapter.QueryValue(ctx, rule.Query)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	ok, err := compare(actual, rule.Operator, rule.ExpectedValue)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.ActualValue = normalizeActual(actual)
	result.IsValid = ok
	return result
}
