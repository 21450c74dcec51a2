package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/doeshing/smartos-go/internal/application/evaluate"
	"github.com/doeshing/smartos-go/internal/application/intent"
	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
)

const maxCommandWidth = 40

// WriteJSON prints v as indented JSON.
func WriteJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderRecord prints the outcome of one command.
func RenderRecord(out io.Writer, rec domain.ExecutionRecord, reply string) {
	status := "OK"
	if !rec.Result.Success {
		status = "FAILED"
	}
	if rec.Result.Pending() {
		status = "PENDING"
	}
	fmt.Fprintf(out, "[%s] %s\n", status, reply)
	fmt.Fprintf(out, "  intent: %s %s (confidence %.2f)\n", rec.Intent.Action, rec.Intent.Target, rec.Intent.Confidence)
	if rec.Result.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", rec.Result.Error)
	}
	if rec.Result.ConfirmationID != "" {
		fmt.Fprintf(out, "  confirmation id: %s\n", rec.Result.ConfirmationID)
	}
	if rec.Result.Screenshot != "" {
		fmt.Fprintf(out, "  screenshot: %s\n", rec.Result.Screenshot)
	}
	fmt.Fprintf(out, "  took %.3fs\n", rec.Result.ExecutionTime.Seconds())
}

// RenderRecords prints records as a table.
func RenderRecords(out io.Writer, records []domain.ExecutionRecord) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Time", "Command", "Action", "Target", "Conf", "OK", "Secs", "Error"})
	for _, rec := range records {
		tw.AppendRow(table.Row{
			rec.Command.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(rec.Command.Text, maxCommandWidth),
			rec.Intent.Action,
			rec.Intent.Target,
			fmt.Sprintf("%.2f", rec.Intent.Confidence),
			yesNo(rec.Result.Success),
			fmt.Sprintf("%.3f", rec.Result.ExecutionTime.Seconds()),
			string(domain.ErrorCodeOf(rec.Result)),
		})
	}
	tw.Render()
}

// RenderMetrics prints the metrics summary.
func RenderMetrics(out io.Writer, m recorder.Metrics) {
	summary := table.NewWriter()
	summary.SetOutputMirror(out)
	summary.SetTitle("Summary")
	summary.AppendRows([]table.Row{
		{"Total commands", m.TotalCommands},
		{"Successful", m.Succeeded},
		{"Failed", m.Failed},
		{"Success rate", percent(m.SuccessRate)},
		{"Average response time", fmt.Sprintf("%.3fs", m.AverageResponseTime)},
		{"Intent accuracy", percent(m.IntentAccuracy)},
	})
	summary.Render()

	windows := table.NewWriter()
	windows.SetOutputMirror(out)
	windows.SetTitle("Recent")
	windows.AppendHeader(table.Row{"Window", "Commands", "Success rate"})
	windows.AppendRow(table.Row{"Last hour", m.LastHour.Total, percent(m.LastHour.SuccessRate)})
	windows.AppendRow(table.Row{"Last day", m.LastDay.Total, percent(m.LastDay.SuccessRate)})
	windows.Render()

	if len(m.PerAction) > 0 {
		actions := make([]string, 0, len(m.PerAction))
		for a := range m.PerAction {
			actions = append(actions, string(a))
		}
		sort.Strings(actions)
		per := table.NewWriter()
		per.SetOutputMirror(out)
		per.SetTitle("Per action")
		per.AppendHeader(table.Row{"Action", "Total", "Succeeded", "Success rate", "Avg secs"})
		for _, a := range actions {
			s := m.PerAction[domain.Action(a)]
			per.AppendRow(table.Row{a, s.Total, s.Succeeded, percent(s.SuccessRate), fmt.Sprintf("%.3f", s.AverageResponseTime)})
		}
		per.Render()
	}

	buckets := table.NewWriter()
	buckets.SetOutputMirror(out)
	buckets.SetTitle("Response times")
	buckets.AppendHeader(table.Row{"Bucket", "Commands"})
	for _, b := range []string{recorder.BucketUnder1s, recorder.BucketUnder3s, recorder.BucketUnder5s, recorder.BucketOver5s} {
		buckets.AppendRow(table.Row{b, m.ResponseTimes[b]})
	}
	buckets.Render()
}

// RenderReport prints per-tier results, the success criteria and failures.
func RenderReport(out io.Writer, report domain.TestReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Tier", "Passed", "Total", "Pass rate", "p80"})
	for _, tier := range domain.Tiers {
		s := report.PerTier[tier]
		tw.AppendRow(table.Row{tier, s.Passed, s.Total, percent(s.PassRate()), tierP80(s)})
	}
	tw.AppendFooter(table.Row{"overall", report.Passed(), report.Total(), percent(report.OverallPassRate), report.OverallP80Latency})
	tw.Render()

	fmt.Fprintf(out, "pass rate > %s: %s\n", percent(report.Criteria.PassRateTarget), verdict(report.PassRateMet()))
	fmt.Fprintf(out, "p80 latency < %s: %s\n", report.Criteria.LatencyTarget, verdict(report.LatencyMet()))

	failures := report.Failures()
	if len(failures) == 0 {
		return
	}
	ft := table.NewWriter()
	ft.SetOutputMirror(out)
	ft.SetTitle("Failures")
	ft.AppendHeader(table.Row{"Case", "Input", "Got", "Reason"})
	for _, f := range failures {
		ft.AppendRow(table.Row{f.Case.Name, truncate(f.Case.Input, maxCommandWidth), strings.TrimSpace(string(f.Intent.Action) + " " + f.Intent.Target), f.Failure})
	}
	ft.Render()
}

// RenderRules prints the registered pattern rules in tie-break order.
func RenderRules(out io.Writer, rules []intent.PatternRule, handled func(domain.Action) bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"#", "Action", "Category", "Keywords", "Handler"})
	for i, rule := range rules {
		tw.AppendRow(table.Row{i + 1, rule.Action, rule.Category, strings.Join(rule.Keywords, ", "), yesNo(handled(rule.Action))})
	}
	tw.Render()
}

// RenderCandidates prints how every rule scored a command.
func RenderCandidates(out io.Writer, candidates []intent.Candidate, threshold float64) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Action", "Hits", "Score", "Confidence", "Wins"})
	for i, c := range candidates {
		wins := i == 0 && c.Hits > 0 && c.Confidence >= threshold
		tw.AppendRow(table.Row{c.Action, fmt.Sprintf("%d/%d", c.Hits, c.Keywords), fmt.Sprintf("%.3f", c.Score), fmt.Sprintf("%.3f", c.Confidence), yesNo(wins)})
	}
	tw.Render()
}

// RenderHealth prints doctor checks.
func RenderHealth(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}

func tierP80(s domain.TierStats) interface{} {
	if s.Total == 0 {
		return "-"
	}
	return evaluate.TierP80(s)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func verdict(met bool) string {
	if met {
		return "met"
	}
	return "NOT met"
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
