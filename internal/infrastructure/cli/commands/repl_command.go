package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/app"
	"github.com/doeshing/smartos-go/internal/application/assistant"
	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/cli/helpers"
)

const replRecentLimit = 10

const replHelp = `Type a command in plain English, for example:
  open calculator
  create a file called notes.txt
  write an essay about climate change
  lock the computer

Session commands:
  help      show this message
  history   show the last commands of this session
  stats     show session metrics
  rotate    start a new log segment
  exit      leave (also quit, stop)`

// NewReplCommand creates the interactive loop
func NewReplCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "repl",
		Aliases: []string{"interactive"},
		Short:   "Read commands interactively until exit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, console, err := rt.Interactive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if console == nil {
				return errors.New("interactive console unavailable")
			}
			return runRepl(cmd.Context(), cmd.OutOrStdout(), c, console)
		},
	}
}

func runRepl(ctx context.Context, out io.Writer, c *app.Container, console Console) error {
	fmt.Fprintln(out, "SmartOS ready. Type 'help' for examples or 'exit' to leave.")
	for {
		fmt.Fprint(out, "> ")
		line, err := console.Listen(ctx)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if domain.IsExitWord(line) {
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}
		if replBuiltin(out, c, line) {
			continue
		}

		resp, err := c.Assistant.Handle(ctx, line)
		switch {
		case errors.Is(err, domain.ErrUnrecognized):
			fmt.Fprintln(out, assistant.Clarify(line))
		case err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		default:
			helpers.RenderRecord(out, resp.Record, resp.Reply)
		}
	}
}

func replBuiltin(out io.Writer, c *app.Container, line string) bool {
	switch line {
	case "help":
		fmt.Fprintln(out, replHelp)
	case "history":
		records := slices.Collect(c.Recorder.Current())
		if len(records) > replRecentLimit {
			records = records[len(records)-replRecentLimit:]
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No commands yet.")
			return true
		}
		helpers.RenderRecords(out, records)
	case "stats":
		helpers.RenderMetrics(out, recorder.Summarize(c.Recorder.Query(recorder.Filter{}), time.Now()))
	case "rotate":
		fmt.Fprintf(out, "Sealed %d records.\n", c.Recorder.Rotate())
	default:
		return false
	}
	return true
}
