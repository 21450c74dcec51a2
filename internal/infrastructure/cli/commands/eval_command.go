package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/app"
	"github.com/doeshing/smartos-go/internal/application/dispatch"
	"github.com/doeshing/smartos-go/internal/application/evaluate"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/smartos-go/internal/infrastructure/handlers"
	"github.com/doeshing/smartos-go/internal/ports"
)

// ErrTargetsMissed is returned when an evaluation misses its success criteria.
var ErrTargetsMissed = errors.New("evaluation targets not met")

// NewEvalCommand creates the eval command
func NewEvalCommand(rt *Runtime) *cobra.Command {
	var (
		casesPath string
		tier      string
		mode      string
		parallel  int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score intent recognition against the test corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := evaluate.ParseMode(mode)
			if err != nil {
				return err
			}
			cases, err := loadCases(casesPath, tier)
			if err != nil {
				return err
			}
			c, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}

			opts := evaluate.Options{Mode: m, Parallelism: parallel, Logger: c.Logger}
			if m == evaluate.ModeEndToEnd {
				d, err := simulatedDispatcher(c)
				if err != nil {
					return err
				}
				opts.Dispatcher = d
			}
			harness, err := evaluate.New(c.Matcher, opts)
			if err != nil {
				return err
			}
			report := harness.Run(cmd.Context(), cases)

			out := cmd.OutOrStdout()
			if rt.jsonOutput() {
				if err := helpers.WriteJSON(out, report); err != nil {
					return err
				}
			} else {
				helpers.RenderReport(out, report)
			}
			if !report.MeetsTargets() {
				return ErrTargetsMissed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&casesPath, "cases", "", "YAML corpus file (default: built-in corpus)")
	cmd.Flags().StringVar(&tier, "tier", "", "Only run one tier: easy, medium or hard")
	cmd.Flags().StringVar(&mode, "mode", string(evaluate.ModeRecognition), "recognition or end_to_end")
	cmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "Cases evaluated concurrently")
	return cmd
}

func loadCases(path, tier string) ([]domain.TestCase, error) {
	var (
		cases []domain.TestCase
		err   error
	)
	if path == "" {
		cases, err = evaluate.DefaultCorpus()
	} else {
		cases, err = evaluate.LoadCorpus(path)
	}
	if err != nil {
		return nil, err
	}
	if tier == "" {
		return cases, nil
	}
	t, err := domain.ParseTier(tier)
	if err != nil {
		return nil, err
	}
	return evaluate.FilterTier(cases, t), nil
}

// simulatedDispatcher routes every registered action to a simulated handler
// under the configured policy, so end-to-end runs never touch the machine.
func simulatedDispatcher(c *app.Container) (*dispatch.Dispatcher, error) {
	var actions []domain.Action
	for _, rule := range c.Registry.Rules() {
		actions = append(actions, rule.Action)
	}
	d := dispatch.New(dispatch.Options{Timeout: c.Config.GetResponseTimeout()}, dispatch.Dependencies{
		Policy: autoApprove{c.Policy},
		Logger: c.Logger,
	})
	if err := d.Register(&handlers.SimulatedHandler{Actions: actions}); err != nil {
		return nil, fmt.Errorf("register simulated handler: %w", err)
	}
	return d, nil
}

// autoApprove lets confirmable intents through; denials still fail.
type autoApprove struct {
	policy ports.PolicyService
}

func (a autoApprove) Evaluate(in domain.Intent) domain.PolicyDecision {
	decision := a.policy.Evaluate(in)
	if decision.Verdict == domain.VerdictConfirm {
		return domain.Allowed()
	}
	return decision
}
