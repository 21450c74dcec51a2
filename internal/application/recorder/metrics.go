package recorder

import (
	"iter"
	"time"

	"github.com/doeshing/smartos-go/internal/domain"
)

// Response-time bucket labels. The "<" buckets are cumulative: a 0.5s
// command counts in all three.
const (
	BucketUnder1s = "<1s"
	BucketUnder3s = "<3s"
	BucketUnder5s = "<5s"
	BucketOver5s  = ">=5s"
)

// Windows reported in Metrics.
const (
	LastHour = time.Hour
	LastDay  = 24 * time.Hour
)

// WindowStats covers the records of one trailing time window.
type WindowStats struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	SuccessRate float64 `json:"success_rate"`
}

func (w *WindowStats) add(success bool) {
	w.Total++
	if success {
		w.Succeeded++
	}
	w.SuccessRate = float64(w.Succeeded) / float64(w.Total)
}

// ActionStats aggregates records of one action.
type ActionStats struct {
	Total               int     `json:"total"`
	Succeeded           int     `json:"succeeded"`
	SuccessRate         float64 `json:"success_rate"`
	AverageResponseTime float64 `json:"average_response_time"`
}

// Metrics is the dashboard summary over a set of records.
// Times are in seconds.
type Metrics struct {
	TotalCommands       int                           `json:"total_commands"`
	Succeeded           int                           `json:"successful_commands"`
	Failed              int                           `json:"failed_commands"`
	SuccessRate         float64                       `json:"success_rate"`
	AverageResponseTime float64                       `json:"average_response_time"`
	IntentAccuracy      float64                       `json:"intent_accuracy"`
	LastHour            WindowStats                   `json:"last_hour"`
	LastDay             WindowStats                   `json:"last_day"`
	PerAction           map[domain.Action]ActionStats `json:"per_action"`
	ResponseTimes       map[string]int                `json:"response_time_buckets"`
	Errors              map[domain.ErrorCode]int      `json:"errors,omitempty"`
}

// Summarize computes metrics over records as of now. Intent accuracy is the
// share of records whose confidence exceeds domain.HighConfidence.
func Summarize(records iter.Seq[domain.ExecutionRecord], now time.Time) Metrics {
	m := Metrics{
		PerAction: map[domain.Action]ActionStats{},
		ResponseTimes: map[string]int{
			BucketUnder1s: 0, BucketUnder3s: 0, BucketUnder5s: 0, BucketOver5s: 0,
		},
	}

	var (
		total     time.Duration
		confident int
		perTime   = map[domain.Action]time.Duration{}
	)
	for rec := range records {
		m.TotalCommands++
		elapsed := rec.Result.ExecutionTime
		total += elapsed
		if rec.Intent.Confidence > domain.HighConfidence {
			confident++
		}
		for _, b := range buckets(elapsed) {
			m.ResponseTimes[b]++
		}
		if age := now.Sub(rec.Command.Timestamp); age >= 0 {
			if age <= LastHour {
				m.LastHour.add(rec.Result.Success)
			}
			if age <= LastDay {
				m.LastDay.add(rec.Result.Success)
			}
		}

		stats := m.PerAction[rec.Intent.Action]
		stats.Total++
		perTime[rec.Intent.Action] += elapsed
		if rec.Result.Success {
			m.Succeeded++
			stats.Succeeded++
		} else {
			m.Failed++
			if code := domain.ErrorCodeOf(rec.Result); code != "" {
				if m.Errors == nil {
					m.Errors = map[domain.ErrorCode]int{}
				}
				m.Errors[code]++
			}
		}
		m.PerAction[rec.Intent.Action] = stats
	}

	if m.TotalCommands == 0 {
		return m
	}
	n := float64(m.TotalCommands)
	m.SuccessRate = float64(m.Succeeded) / n
	m.AverageResponseTime = total.Seconds() / n
	m.IntentAccuracy = float64(confident) / n
	for action, stats := range m.PerAction {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
		stats.AverageResponseTime = perTime[action].Seconds() / float64(stats.Total)
		m.PerAction[action] = stats
	}
	return m
}

func buckets(d time.Duration) []string {
	switch {
	case d < time.Second:
		return []string{BucketUnder1s, BucketUnder3s, BucketUnder5s}
	case d < 3*time.Second:
		return []string{BucketUnder3s, BucketUnder5s}
	case d < 5*time.Second:
		return []string{BucketUnder5s}
	default:
		return []string{BucketOver5s}
	}
}
