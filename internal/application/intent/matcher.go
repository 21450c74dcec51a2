package intent

import (
	"math"
	"sort"

	"github.com/doeshing/smartos-go/internal/domain"
)

// Candidate is one rule's score for a command.
type Candidate struct {
	Action     domain.Action
	Category   domain.Category
	Hits       int
	Keywords   int
	Score      float64
	Confidence float64
	order      int
	hitEnd     int
}

// Matcher scores commands against a sealed Registry.
type Matcher struct {
	registry   *Registry
	threshold  float64
	categories map[domain.Category]bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the minimum confidence a rule needs to win.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 && threshold <= 1 {
			m.threshold = threshold
		}
	}
}

// WithCategories restricts matching to the given categories.
// An empty list enables every category.
func WithCategories(categories ...domain.Category) Option {
	return func(m *Matcher) {
		if len(categories) == 0 {
			m.categories = nil
			return
		}
		m.categories = make(map[domain.Category]bool, len(categories))
		for _, c := range categories {
			m.categories[c] = true
		}
	}
}

// NewMatcher seals reg and returns a matcher over it.
func NewMatcher(reg *Registry, opts ...Option) *Matcher {
	reg.Seal()
	m := &Matcher{registry: reg, threshold: domain.DefaultConfidenceThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured confidence threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the best-scoring intent for cmd, or the unknown intent.
// Confidence is the square root of the keyword hit ratio, so it stays in
// [0,1] and grows with every additional keyword hit.
func (m *Matcher) Match(cmd domain.Command) domain.Intent {
	tokens := Tokenize(cmd.Text)
	if len(tokens) == 0 {
		return domain.UnknownIntent()
	}

	best, ok := m.best(tokens)
	if !ok || best.Confidence < m.threshold {
		return domain.UnknownIntent()
	}

	rule := m.registry.rules[best.order].rule
	return domain.Intent{
		Action:     rule.Action,
		Target:     extractTarget(rule, tokens, best.hitEnd),
		Parameters: extractParameters(rule, cmd.Text, tokens),
		Confidence: best.Confidence,
	}
}

// Explain scores every enabled rule for cmd, best first.
func (m *Matcher) Explain(cmd domain.Command) []Candidate {
	tokens := Tokenize(cmd.Text)
	out := make([]Candidate, 0, len(m.registry.rules))
	for i := range m.registry.rules {
		if c, ok := m.score(i, tokens); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

func (m *Matcher) best(tokens []string) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for i := range m.registry.rules {
		c, ok := m.score(i, tokens)
		if !ok || c.Hits == 0 {
			continue
		}
		// strict comparison keeps the earliest registered rule on ties
		if !found || c.Score > best.Score {
			best, found = c, true
		}
	}
	return best, found
}

func (m *Matcher) score(i int, tokens []string) (Candidate, bool) {
	c := m.registry.rules[i]
	if m.categories != nil && !m.categories[c.rule.Category] {
		return Candidate{}, false
	}

	hits, firstHit, firstLen := 0, -1, 0
	for _, forms := range c.forms {
		pos, n := earliest(forms, tokens)
		if pos < 0 {
			continue
		}
		hits++
		if firstHit < 0 || pos < firstHit {
			firstHit, firstLen = pos, n
		}
	}

	score := float64(hits) / float64(len(c.forms))
	return Candidate{
		Action:     c.rule.Action,
		Category:   c.rule.Category,
		Hits:       hits,
		Keywords:   len(c.forms),
		Score:      score,
		Confidence: math.Sqrt(score),
		order:      i,
		hitEnd:     firstHit + firstLen,
	}, true
}

func earliest(forms []form, tokens []string) (int, int) {
	bestPos, bestLen := -1, 0
	for _, f := range forms {
		pos, n := f.find(tokens)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && n > bestLen) {
			bestPos, bestLen = pos, n
		}
	}
	return bestPos, bestLen
}

func extractTarget(rule PatternRule, tokens []string, hitEnd int) (target string) {
	defer func() {
		if recover() != nil {
			target = ""
		}
	}()
	if rule.Target != nil {
		return rule.Target(tokens, hitEnd)
	}
	return NextWord(tokens, hitEnd)
}

func extractParameters(rule PatternRule, text string, tokens []string) (params map[string]string) {
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	if rule.Parameters == nil {
		return nil
	}
	params = rule.Parameters(text, tokens)
	if len(params) == 0 {
		return nil
	}
	return params
}
