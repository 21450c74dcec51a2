// Package evaluate runs the fixed command corpus against the matcher and,
// optionally, the dispatcher, and reports pass rates and latency.
package evaluate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Mode selects how far a case is executed.
type Mode string

const (
	// ModeRecognition only checks intent recognition.
	ModeRecognition Mode = "recognition"
	// ModeEndToEnd also dispatches the intent and requires success.
	ModeEndToEnd Mode = "end_to_end"
)

// ParseMode validates a mode name. Empty means recognition.
func ParseMode(value string) (Mode, error) {
	switch m := Mode(strings.ReplaceAll(strings.TrimSpace(value), "-", "_")); m {
	case "", ModeRecognition:
		return ModeRecognition, nil
	case ModeEndToEnd:
		return ModeEndToEnd, nil
	default:
		return "", fmt.Errorf("unknown evaluation mode %q", value)
	}
}

// IntentMatcher is the recognition half of the pipeline.
type IntentMatcher interface {
	Match(cmd domain.Command) domain.Intent
}

// Dispatcher is the execution half of the pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, in domain.Intent) domain.ExecutionResult
}

// Options configures a Harness.
type Options struct {
	Mode        Mode
	Dispatcher  Dispatcher
	Parallelism int
	Criteria    domain.Criteria
	Clock       func() time.Time
	Logger      ports.Logger
}

// Harness evaluates test cases.
type Harness struct {
	matcher IntentMatcher
	opts    Options
	logger  ports.Logger
}

// New validates opts and returns a harness.
func New(matcher IntentMatcher, opts Options) (*Harness, error) {
	if matcher == nil {
		return nil, fmt.Errorf("evaluate: matcher is required")
	}
	if opts.Mode == "" {
		opts.Mode = ModeRecognition
	}
	if opts.Mode == ModeEndToEnd && opts.Dispatcher == nil {
		return nil, fmt.Errorf("evaluate: end_to_end mode requires a dispatcher")
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Criteria == (domain.Criteria{}) {
		opts.Criteria = domain.DefaultCriteria()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Harness{matcher: matcher, opts: opts, logger: log}, nil
}

// Run evaluates every case and always returns a report. Cases left
// unevaluated by a cancelled ctx count as failures.
func (h *Harness) Run(ctx context.Context, cases []domain.TestCase) domain.TestReport {
	started := h.opts.Clock()
	results := make([]domain.CaseResult, len(cases))

	if h.opts.Parallelism == 1 {
		for i, c := range cases {
			results[i] = h.runCase(ctx, c)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(h.opts.Parallelism)
		for i, c := range cases {
			g.Go(func() error {
				results[i] = h.runCase(gctx, c)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := Aggregate(results, h.opts.Criteria)
	report.StartedAt = started
	report.Duration = h.opts.Clock().Sub(started)

	h.logger.Info("evaluation finished", map[string]interface{}{
		"mode":      string(h.opts.Mode),
		"cases":     report.Total(),
		"passed":    report.Passed(),
		"pass_rate": report.OverallPassRate,
		"p80_ms":    report.OverallP80Latency.Milliseconds(),
	})
	return report
}

func (h *Harness) runCase(ctx context.Context, c domain.TestCase) domain.CaseResult {
	out := domain.CaseResult{Case: c}
	if err := ctx.Err(); err != nil {
		out.Intent = domain.UnknownIntent()
		out.Failure = "not evaluated: " + err.Error()
		return out
	}

	start := h.opts.Clock()
	out.Intent = h.matcher.Match(domain.NewCommand(c.Input, start))
	if h.opts.Mode == ModeEndToEnd {
		res := h.opts.Dispatcher.Dispatch(ctx, out.Intent)
		out.Result = &res
	}
	out.Latency = h.opts.Clock().Sub(start)
	if out.Latency < 0 {
		out.Latency = 0
	}

	out.Failure = judge(c, out)
	out.Passed = out.Failure == ""
	return out
}

func judge(c domain.TestCase, out domain.CaseResult) string {
	if out.Intent.Action != c.ExpectedAction {
		return fmt.Sprintf("expected action %s, got %s", c.ExpectedAction, out.Intent.Action)
	}
	if c.ExpectedTarget != "" && !strings.EqualFold(out.Intent.Target, c.ExpectedTarget) {
		return fmt.Sprintf("expected target %q, got %q", c.ExpectedTarget, out.Intent.Target)
	}
	if out.Result != nil && !out.Result.Success {
		return "dispatch failed: " + out.Result.Error
	}
	return ""
}
