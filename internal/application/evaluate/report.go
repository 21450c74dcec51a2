package evaluate

import (
	"math"
	"slices"
	"time"

	"github.com/doeshing/smartos-go/internal/domain"
)

// Percentile returns the nearest-rank percentile of ascending-sorted
// latencies: the value at 1-based rank ceil(p*n). Empty input yields 0.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	// tolerate float noise in p*n
	rank := int(math.Ceil(p*float64(n) - 1e-9))
	rank = max(1, min(rank, n))
	return sorted[rank-1]
}

// Aggregate builds a report from case results. The overall pass rate is
// weighted by case count, not averaged across tiers.
func Aggregate(results []domain.CaseResult, criteria domain.Criteria) domain.TestReport {
	report := domain.TestReport{
		PerTier:  make(map[domain.Tier]domain.TierStats, len(domain.Tiers)),
		Cases:    results,
		Criteria: criteria,
	}
	for _, tier := range domain.Tiers {
		report.PerTier[tier] = domain.TierStats{}
	}

	all := make([]time.Duration, 0, len(results))
	passed := 0
	for _, r := range results {
		stats := report.PerTier[r.Case.Tier]
		stats.Total++
		if r.Passed {
			stats.Passed++
			passed++
		}
		stats.Latencies = append(stats.Latencies, r.Latency)
		report.PerTier[r.Case.Tier] = stats
		all = append(all, r.Latency)
	}
	for tier, stats := range report.PerTier {
		slices.Sort(stats.Latencies)
		report.PerTier[tier] = stats
	}

	if len(results) > 0 {
		report.OverallPassRate = float64(passed) / float64(len(results))
	}
	slices.Sort(all)
	report.OverallP80Latency = Percentile(all, 0.8)
	return report
}

// TierP80 returns the 80th percentile latency of one tier.
func TierP80(stats domain.TierStats) time.Duration {
	return Percentile(stats.Latencies, 0.8)
}
