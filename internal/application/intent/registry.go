// Package intent turns free-text commands into structured intents.
//
// A Registry holds an ordered list of PatternRules. A Matcher scores every
// rule against the tokenized command and returns the best Intent, or the
// unknown intent when nothing clears the confidence threshold. Matching is
// pure: the same command and registry always produce the same Intent.
package intent

import (
	"fmt"

	"github.com/doeshing/smartos-go/internal/domain"
)

// TargetExtractor pulls the object of an action out of the command tokens.
// hitEnd is the token index just past the earliest keyword hit.
type TargetExtractor func(tokens []string, hitEnd int) string

// ParameterExtractor derives rule-specific parameters. text is the raw
// command text, tokens its tokenized form.
type ParameterExtractor func(text string, tokens []string) map[string]string

// PatternRule describes how to recognize one action.
//
// Keywords are required concepts; Aliases lists alternate surface forms for
// a keyword (multi-word phrases and single-token globs such as "*.txt" are
// allowed). A keyword scores a hit when it or any alias appears.
type PatternRule struct {
	Action     domain.Action
	Category   domain.Category
	Keywords   []string
	Aliases    map[string][]string
	Target     TargetExtractor
	Parameters ParameterExtractor
}

type compiledRule struct {
	rule  PatternRule
	forms [][]form // per keyword, keyword first then aliases
}

// Registry is the ordered rule set. Registration order breaks score ties.
// Register is not safe for concurrent use; a sealed Registry is read-only
// and may be shared freely.
type Registry struct {
	rules  []compiledRule
	index  map[domain.Action]int
	sealed bool
}

// NewRegistry builds a registry from rules in order.
func NewRegistry(rules ...PatternRule) (*Registry, error) {
	r := &Registry{index: make(map[domain.Action]int)}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a rule. It fails with *domain.DuplicateActionError when
// the action is already present and with domain.ErrRegistrySealed after Seal.
func (r *Registry) Register(rule PatternRule) error {
	if r.sealed {
		return domain.ErrRegistrySealed
	}
	if err := rule.Action.Validate(); err != nil {
		return err
	}
	if _, exists := r.index[rule.Action]; exists {
		return &domain.DuplicateActionError{Action: rule.Action, Owner: "pattern registry"}
	}
	if len(rule.Keywords) == 0 {
		return fmt.Errorf("rule %s: at least one keyword is required", rule.Action)
	}
	if rule.Category == "" {
		rule.Category = domain.CategoryCustom
	}

	compiled := compiledRule{rule: rule, forms: make([][]form, 0, len(rule.Keywords))}
	for _, kw := range rule.Keywords {
		raw := append([]string{kw}, rule.Aliases[kw]...)
		forms := make([]form, 0, len(raw))
		for _, alias := range raw {
			f, err := compileForm(alias)
			if err != nil {
				return fmt.Errorf("rule %s: keyword %q: %w", rule.Action, alias, err)
			}
			if !f.empty() {
				forms = append(forms, f)
			}
		}
		if len(forms) == 0 {
			return fmt.Errorf("rule %s: keyword %q has no usable form", rule.Action, kw)
		}
		compiled.forms = append(compiled.forms, forms)
	}

	r.index[rule.Action] = len(r.rules)
	r.rules = append(r.rules, compiled)
	return nil
}

// Seal freezes the registry. Sealing twice is harmless.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Register is still allowed.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []PatternRule {
	out := make([]PatternRule, len(r.rules))
	for i, c := range r.rules {
		out[i] = c.rule
	}
	return out
}

// Lookup returns the rule registered for action.
func (r *Registry) Lookup(action domain.Action) (PatternRule, bool) {
	i, ok := r.index[action]
	if !ok {
		return PatternRule{}, false
	}
	return r.rules[i].rule, true
}

// Len reports the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}
