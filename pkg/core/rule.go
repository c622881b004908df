package core

import "fmt"

// Operator is the comparison applied between a rule's actual and expected
// values.
type Operator string

// Supported comparison operators.
const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
	// OpBetween expects an ordered 2-element expected value and is inclusive
	// on both ends.
	OpBetween Operator = "between"
)

// Valid reports whether the operator is one of the supported comparisons.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan,
		OpGreaterOrEqual, OpLessOrEqual, OpBetween:
		return true
	}
	return false
}

// Rule is a named scalar query plus comparison operator and expected value,
// used for pass/fail validation against a backend.
type Rule struct {
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Query         string   `json:"query" yaml:"query"`
	Operator      Operator `json:"operator" yaml:"operator"`
	ExpectedValue any      `json:"expected_value" yaml:"expected_value"`
}

// ApplyDefaults fills optional fields the way the rule-file contract
// specifies: description, operator and expected value all have defaults.
func (r *Rule) ApplyDefaults() {
	if r.Description == "" {
		r.Description = fmt.Sprintf("Validation rule: %s", r.Name)
	}
	if r.Operator == "" {
		r.Operator = OpEquals
	}
	if r.ExpectedValue == nil {
		r.ExpectedValue = 0
	}
}

// Result is the outcome of executing one rule. Either ActualValue or Error is
// set, never both.
type Result struct {
	RuleName      string `json:"rule_name"`
	IsValid       bool   `json:"is_valid"`
	ActualValue   any    `json:"actual_value,omitempty"`
	ExpectedValue any    `json:"expected_value"`
	Error         string `json:"error,omitempty"`
	Description   string `json:"description"`
}
