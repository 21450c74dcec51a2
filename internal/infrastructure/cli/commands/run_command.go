package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/application/assistant"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/cli/helpers"
)

// ErrCommandFailed marks a command that was recognized but did not succeed.
var ErrCommandFailed = errors.New("command failed")

// NewRunCommand creates the run command
func NewRunCommand(rt *Runtime) *cobra.Command {
	var background bool

	cmd := &cobra.Command{
		Use:   "run <command...>",
		Short: "Recognize and execute one command",
		Example: `  smartos run open calculator
  smartos run create file notes.txt
  smartos --dry-run run shutdown the computer`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := rt.Interactive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if background || c.Config.ShouldRunInBackground() {
				return runInBackground(cmd, rt, c.Assistant, text)
			}
			resp, err := c.Assistant.Handle(cmd.Context(), text)
			return reportResponse(cmd.OutOrStdout(), rt.jsonOutput(), resp, err)
		},
	}

	cmd.Flags().BoolVar(&background, "background", false, "Execute in the background and wait for the recorded result")
	return cmd
}

func runInBackground(cmd *cobra.Command, rt *Runtime, svc *assistant.Service, text string) error {
	task, err := svc.Submit(cmd.Context(), text)
	if err != nil {
		return reportResponse(cmd.OutOrStdout(), rt.jsonOutput(), assistant.Response{}, err)
	}
	spinner := helpers.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("running %s %s", task.Intent.Action, task.Intent.Target))
	if !rt.jsonOutput() {
		spinner.Start()
	}
	resp, err := task.Wait(cmd.Context())
	spinner.Stop()
	return reportResponse(cmd.OutOrStdout(), rt.jsonOutput(), resp, err)
}

// reportResponse renders one pipeline response and turns failures into errors
// so the process exits non-zero.
func reportResponse(out io.Writer, asJSON bool, resp assistant.Response, err error) error {
	if errors.Is(err, domain.ErrUnrecognized) {
		if asJSON {
			_ = helpers.WriteJSON(out, resp)
		} else {
			fmt.Fprintln(out, assistant.Clarify(resp.Record.Command.Text))
		}
		return err
	}
	if err != nil {
		return err
	}

	if asJSON {
		if err := helpers.WriteJSON(out, resp); err != nil {
			return err
		}
	} else {
		helpers.RenderRecord(out, resp.Record, resp.Reply)
	}
	if resp.Clarification || resp.Record.Result.Success || resp.Record.Result.Pending() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCommandFailed, resp.Record.Result.Error)
}
