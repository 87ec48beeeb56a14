package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/solvify/docpipe/internal/core/domain"
)

// Rule adds Weight to a class score when any keyword is contained in the
// lower-cased text, or when Pattern matches. Weights are additive across
// rules and deliberately not normalized: a document matching several rules
// for one class may score above 1.0.
type Rule struct {
	Class    domain.DocumentClass `yaml:"class"`
	Weight   float64              `yaml:"weight"`
	Keywords []string             `yaml:"keywords,omitempty"`
	Pattern  string               `yaml:"pattern,omitempty"`

	re *regexp.Regexp
}

func (r *Rule) matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && containsKeyword(lowered, kw) {
			return true
		}
	}
	return r.re != nil && r.re.MatchString(lowered)
}

// DefaultRules returns the built-in keyword rule set.
func DefaultRules() []Rule {
	rules := []Rule{
		{Class: domain.ClassInvoice, Weight: 0.6, Keywords: []string{"invoice", "bill to", "total amount", "tax invoice", "subtotal"}},
		{Class: domain.ClassInvoice, Weight: 0.3, Pattern: `inv-\d+|invoice #`},
		{Class: domain.ClassResume, Weight: 0.6, Keywords: []string{"resume", "experience", "education", "skills", "projects", "work history"}},
		{Class: domain.ClassResume, Weight: 0.2, Keywords: []string{"curriculum vitae", "summary", "languages"}},
		{Class: domain.ClassUtilityBill, Weight: 0.7, Keywords: []string{"utility bill", "kwh", "electricity", "water bill", "gas bill", "account number"}},
		{Class: domain.ClassUtilityBill, Weight: 0.3, Keywords: []string{"usage", "meter reading", "service period"}},
	}
	if err := compileRules(rules); err != nil {
		// Built-in patterns are static; a failure here is a programming error.
		panic(err)
	}
	return rules
}

// LoadRules reads a replacement rule set from a YAML file. An empty path
// returns the defaults.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}
	for i := range rules {
		if !knownClass(rules[i].Class) {
			return nil, fmt.Errorf("rule %d: unknown class %q", i, rules[i].Class)
		}
		if rules[i].Weight <= 0 {
			return nil, fmt.Errorf("rule %d: weight must be positive", i)
		}
	}
	if err := compileRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func compileRules(rules []Rule) error {
	for i := range rules {
		if rules[i].Pattern == "" {
			continue
		}
		re, err := regexp.Compile(rules[i].Pattern)
		if err != nil {
			return fmt.Errorf("rule %d: compile pattern: %w", i, err)
		}
		rules[i].re = re
	}
	return nil
}

func knownClass(class domain.DocumentClass) bool {
	for _, c := range domain.CandidateClasses {
		if c == class {
			return true
		}
	}
	return false
}
