package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/smartos-go/assets"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/filesystem"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Guardrail implements the PolicyService port.
type Guardrail struct {
	blocked     []compiledPattern
	confirm     []confirmRule
	allowedDirs []string
	baseDir     string
	categoryOf  func(domain.Action) (domain.Category, bool)
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule BlockedPattern
}

// BlockedPattern describes a regex that denies matching intents.
type BlockedPattern struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// ConfirmationRule names intents that need user confirmation.
// Match is an action, a category, or "action:target" where target may list
// alternatives separated by "|".
type ConfirmationRule struct {
	Match   string `yaml:"match"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		BlockedPatterns     []BlockedPattern   `yaml:"blocked_patterns"`
		RequireConfirmation []ConfirmationRule `yaml:"require_confirmation"`
	} `yaml:"rules"`
}

type confirmRule struct {
	action   domain.Action
	category domain.Category
	targets  map[string]bool
	message  string
	raw      string
}

// Option customizes a Guardrail.
type Option func(*Guardrail)

// WithCategoryLookup lets category names in confirmation rules resolve.
func WithCategoryLookup(fn func(domain.Action) (domain.Category, bool)) Option {
	return func(g *Guardrail) { g.categoryOf = fn }
}

// WithBaseDir resolves relative file names against dir instead of the
// working directory.
func WithBaseDir(dir string) Option {
	return func(g *Guardrail) { g.baseDir = dir }
}

// NewGuardrail loads policy rules from settings.RulesFile (or the embedded
// defaults when missing) and merges the inline settings.
func NewGuardrail(settings domain.SecuritySettings, opts ...Option) (*Guardrail, error) {
	rules, err := loadRules(settings.RulesFile)
	if err != nil {
		return nil, err
	}
	for _, pattern := range settings.BlockedCommands {
		rules.Rules.BlockedPatterns = append(rules.Rules.BlockedPatterns, BlockedPattern{
			Pattern: pattern,
			Message: "blocked command: " + pattern,
		})
	}
	for _, entry := range settings.RequireConfirmation {
		rules.Rules.RequireConfirmation = append(rules.Rules.RequireConfirmation, ConfirmationRule{
			Match:   entry,
			Message: "confirmation required for " + entry,
		})
	}

	g := &Guardrail{}
	for _, opt := range opts {
		opt(g)
	}
	if g.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			g.baseDir = wd
		}
	}

	for _, pattern := range rules.Rules.BlockedPatterns {
		re, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			return nil, fmt.Errorf("blocked pattern %q: %w", pattern.Pattern, err)
		}
		g.blocked = append(g.blocked, compiledPattern{re: re, rule: pattern})
	}
	for _, rule := range rules.Rules.RequireConfirmation {
		g.confirm = append(g.confirm, parseConfirmRule(rule))
	}
	for _, dir := range settings.AllowedDirectories {
		g.allowedDirs = append(g.allowedDirs, g.resolve(filesystem.ExpandHome(dir)))
	}
	return g, nil
}

// Evaluate implements ports.PolicyService. Deny outranks confirm.
func (g *Guardrail) Evaluate(in domain.Intent) domain.PolicyDecision {
	decision := domain.Allowed()

	for _, subject := range subjects(in) {
		for _, pattern := range g.blocked {
			if pattern.re.MatchString(subject) {
				decision.Verdict = domain.VerdictDeny
				decision.Reasons = appendOnce(decision.Reasons, messageOr(pattern.rule.Message, "blocked pattern "+pattern.rule.Pattern))
				decision.MatchedRules = appendOnce(decision.MatchedRules, pattern.rule.Pattern)
			}
		}
	}

	if len(g.allowedDirs) > 0 {
		for _, name := range domain.TouchedPaths(in) {
			if !g.insideAllowed(name) {
				decision.Verdict = domain.VerdictDeny
				decision.Reasons = append(decision.Reasons, "path outside allowed directories: "+name)
				decision.MatchedRules = append(decision.MatchedRules, "allowed_directories")
			}
		}
	}
	if decision.Verdict == domain.VerdictDeny {
		return decision
	}

	for _, rule := range g.confirm {
		if g.matches(rule, in) {
			decision.Verdict = domain.VerdictConfirm
			decision.Reasons = append(decision.Reasons, rule.message)
			decision.MatchedRules = append(decision.MatchedRules, rule.raw)
		}
	}
	return decision
}

func (g *Guardrail) matches(rule confirmRule, in domain.Intent) bool {
	if rule.category != "" {
		if g.categoryOf == nil {
			return false
		}
		cat, ok := g.categoryOf(in.Action)
		return ok && cat == rule.category
	}
	if rule.action != in.Action {
		return false
	}
	return len(rule.targets) == 0 || rule.targets[strings.ToLower(in.Target)]
}

func (g *Guardrail) insideAllowed(name string) bool {
	path := g.resolve(filesystem.ExpandHome(name))
	for _, dir := range g.allowedDirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func (g *Guardrail) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.baseDir, path)
	}
	return filepath.Clean(path)
}

func parseConfirmRule(rule ConfirmationRule) confirmRule {
	raw := strings.TrimSpace(rule.Match)
	out := confirmRule{raw: raw, message: messageOr(rule.Message, "confirmation required for "+raw)}
	action, targets, hasTarget := strings.Cut(raw, ":")
	if !hasTarget {
		if cat, err := domain.ParseCategory(raw); err == nil {
			out.category = cat
			return out
		}
	}
	out.action = domain.Action(strings.TrimSpace(action))
	if hasTarget {
		out.targets = make(map[string]bool)
		for _, t := range strings.Split(targets, "|") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				out.targets[t] = true
			}
		}
	}
	return out
}

func subjects(in domain.Intent) []string {
	out := []string{strings.TrimSpace(string(in.Action) + " " + in.Target)}
	keys := make([]string, 0, len(in.Parameters))
	for k := range in.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, in.Parameters[k])
	}
	return out
}

func loadRules(path string) (RulesFile, error) {
	var rules RulesFile
	data, err := os.ReadFile(filesystem.ExpandHome(path))
	if path == "" || err != nil {
		// fall back to defaults
		data = assets.DefaultPolicyYAML
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, fmt.Errorf("parse policy rules: %w", err)
	}
	return rules, nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

func appendOnce(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

var _ ports.PolicyService = (*Guardrail)(nil)
