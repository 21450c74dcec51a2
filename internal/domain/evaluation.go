package domain

import (
	"fmt"
	"time"
)

// Tier is the difficulty band of a TestCase.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Tiers lists tiers in report order.
var Tiers = []Tier{TierEasy, TierMedium, TierHard}

// ParseTier validates a tier name.
func ParseTier(value string) (Tier, error) {
	switch t := Tier(value); t {
	case TierEasy, TierMedium, TierHard:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier %q", value)
	}
}

// TestCase is one entry of the evaluation corpus.
type TestCase struct {
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description,omitempty" json:"description,omitempty"`
	Tier           Tier   `yaml:"tier" json:"tier"`
	Input          string `yaml:"input" json:"input"`
	ExpectedAction Action `yaml:"expected_action" json:"expected_action"`
	ExpectedTarget string `yaml:"expected_target,omitempty" json:"expected_target,omitempty"`
}

// CaseResult captures the outcome of a single TestCase.
type CaseResult struct {
	Case    TestCase         `json:"case"`
	Intent  Intent           `json:"intent"`
	Result  *ExecutionResult `json:"result,omitempty"`
	Passed  bool             `json:"passed"`
	Latency time.Duration    `json:"latency"`
	Failure string           `json:"failure,omitempty"`
}

// TierStats aggregates one tier. Latencies are sorted ascending.
type TierStats struct {
	Total     int             `json:"total"`
	Passed    int             `json:"passed"`
	Latencies []time.Duration `json:"latencies"`
}

// PassRate returns Passed/Total, or 0 for an empty tier.
func (s TierStats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Criteria are the targets a report is judged against.
type Criteria struct {
	PassRateTarget float64       `json:"pass_rate_target"`
	LatencyTarget  time.Duration `json:"latency_target"`
}

// DefaultCriteria: pass rate above 90% and p80 latency under 3 seconds.
func DefaultCriteria() Criteria {
	return Criteria{PassRateTarget: 0.90, LatencyTarget: 3 * time.Second}
}

// TestReport is built fresh per evaluation run.
type TestReport struct {
	PerTier           map[Tier]TierStats `json:"per_tier"`
	OverallPassRate   float64            `json:"overall_pass_rate"`
	OverallP80Latency time.Duration      `json:"overall_p80_latency"`
	Cases             []CaseResult       `json:"cases"`
	Criteria          Criteria           `json:"criteria"`
	StartedAt         time.Time          `json:"started_at"`
	Duration          time.Duration      `json:"duration"`
}

// Total returns the number of evaluated cases.
func (r TestReport) Total() int {
	total := 0
	for _, s := range r.PerTier {
		total += s.Total
	}
	return total
}

// Passed returns the number of passing cases.
func (r TestReport) Passed() int {
	passed := 0
	for _, s := range r.PerTier {
		passed += s.Passed
	}
	return passed
}

// PassRateMet reports whether the overall pass rate beats the target.
func (r TestReport) PassRateMet() bool {
	return r.OverallPassRate > r.Criteria.PassRateTarget
}

// LatencyMet reports whether the p80 latency is under the target.
func (r TestReport) LatencyMet() bool {
	return r.OverallP80Latency < r.Criteria.LatencyTarget
}

// MeetsTargets reports whether both success criteria hold.
func (r TestReport) MeetsTargets() bool {
	return r.PassRateMet() && r.LatencyMet()
}

// Failures returns the failing case results in corpus order.
func (r TestReport) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}
