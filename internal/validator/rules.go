package validator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrel-data/kestrel/pkg/core"
	"gopkg.in/yaml.v3"
)

// MalformedRuleFileError reports a rule file that could not be parsed or that
// violates the rule-file contract.
type MalformedRuleFileError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedRuleFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed rule file %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed rule file %s: %s", e.Path, e.Reason)
}

func (e *MalformedRuleFileError) Unwrap() error { return e.Err }

// ruleDocument is the on-disk shape: either a bare list of rules or a mapping
// with a top-level "rules" key.
type ruleDocument struct {
	Rules []core.Rule `json:"rules" yaml:"rules"`
}

// LoadRulesFromFile reads validation rules from a YAML or JSON file. Both a
// bare rule list and a {rules: [...]} document are accepted; the format is
// chosen by file extension, defaulting to YAML. Defaults are applied to every
// rule and a rule without a name or query is rejected.
func LoadRulesFromFile(path string) ([]core.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var (
		rules []core.Rule
		doc   ruleDocument
	)
	if isJSONFile(path) {
		if err := json.Unmarshal(data, &rules); err != nil {
			if err := json.Unmarshal(data, &doc); err != nil {
				return nil, &MalformedRuleFileError{Path: path, Reason: "not a rule list or rules document", Err: err}
			}
			rules = doc.Rules
		}
	} else {
		if err := yaml.Unmarshal(data, &rules); err != nil {
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return nil, &MalformedRuleFileError{Path: path, Reason: "not a rule list or rules document", Err: err}
			}
			rules = doc.Rules
		}
	}

	if len(rules) == 0 {
		return nil, &MalformedRuleFileError{Path: path, Reason: "no rules defined"}
	}

	seen := make(map[string]bool, len(rules))
	for i := range rules {
		rules[i].ApplyDefaults()
		switch {
		case rules[i].Name == "":
			return nil, &MalformedRuleFileError{Path: path, Reason: fmt.Sprintf("rule %d has no name", i+1)}
		case rules[i].Query == "":
			return nil, &MalformedRuleFileError{Path: path, Reason: fmt.Sprintf("rule %q has no query", rules[i].Name)}
		case !rules[i].Operator.Valid():
			return nil, &MalformedRuleFileError{Path: path, Reason: fmt.Sprintf("rule %q has unknown operator %q", rules[i].Name, rules[i].Operator)}
		case seen[rules[i].Name]:
			return nil, &MalformedRuleFileError{Path: path, Reason: fmt.Sprintf("duplicate rule name %q", rules[i].Name)}
		}
		seen[rules[i].Name] = true
	}
	return rules, nil
}

// ExportRules writes rules to a YAML or JSON file as a {rules: [...]}
// document, chosen by file extension and defaulting to YAML.
func ExportRules(path string, rules []core.Rule) error {
	doc := ruleDocument{Rules: rules}

	var (
		data []byte
		err  error
	)
	if isJSONFile(path) {
		data, err = json.MarshalIndent(doc, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rule file: %w", err)
	}
	return nil
}

func isJSONFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
