package commands

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/cli/helpers"
)

// NewRulesCommand creates the rules command
func NewRulesCommand(rt *Runtime) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List pattern rules in tie-break order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			rules := c.Registry.Rules()
			if rt.jsonOutput() {
				type ruleView struct {
					Action   domain.Action   `json:"action"`
					Category domain.Category `json:"category"`
					Keywords []string        `json:"keywords"`
				}
				views := make([]ruleView, 0, len(rules))
				for _, r := range rules {
					views = append(views, ruleView{Action: r.Action, Category: r.Category, Keywords: r.Keywords})
				}
				return helpers.WriteJSON(cmd.OutOrStdout(), views)
			}
			handled := c.Dispatcher.Actions()
			helpers.RenderRules(cmd.OutOrStdout(), rules, func(a domain.Action) bool {
				return slices.Contains(handled, a)
			})
			return nil
		},
	}

	rulesCmd.AddCommand(&cobra.Command{
		Use:   "explain <command...>",
		Short: "Show how every rule scores a command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			command := domain.NewCommand(strings.Join(args, " "), time.Now())
			candidates := c.Matcher.Explain(command)
			in := c.Matcher.Match(command)
			if rt.jsonOutput() {
				return helpers.WriteJSON(cmd.OutOrStdout(), map[string]interface{}{
					"intent":     in,
					"candidates": candidates,
				})
			}
			helpers.RenderCandidates(cmd.OutOrStdout(), candidates, c.Matcher.Threshold())
			fmt.Fprintf(cmd.OutOrStdout(), "=> %s target=%q confidence=%.3f\n", in.Action, in.Target, in.Confidence)
			return nil
		},
	})
	return rulesCmd
}
