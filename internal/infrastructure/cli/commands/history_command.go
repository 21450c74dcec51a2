package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/smartos-go/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(rt *Runtime) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect persisted execution records",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(rt),
		newHistorySearchCommand(rt),
		newHistoryStatsCommand(rt),
		newHistoryExportCommand(rt),
		newHistoryClearCommand(rt),
	)

	return historyCmd
}

func newHistoryListCommand(rt *Runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent execution records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd.Context(), cmd.OutOrStdout(), rt, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max records to show (0 for all)")
	return cmd
}

func newHistorySearchCommand(rt *Runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <keyword...>",
		Short: "Search commands, actions and targets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd.Context(), cmd.OutOrStdout(), rt, limit, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

func newHistoryStatsCommand(rt *Runtime) *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show success rate, response times and per-action metrics",
		Example: `  smartos history stats
  smartos history stats --watch 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), rt)
			if err != nil {
				return err
			}
			if watch <= 0 {
				return showStats(cmd.OutOrStdout(), rt.jsonOutput(), store)
			}

			ticker := time.NewTicker(watch)
			defer ticker.Stop()
			for {
				if !rt.jsonOutput() {
					fmt.Fprintf(cmd.OutOrStdout(), "\nMetrics at %s\n", time.Now().Format(time.DateTime))
				}
				if err := showStats(cmd.OutOrStdout(), rt.jsonOutput(), store); err != nil {
					return err
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "Refresh the metrics at this interval until interrupted")
	return cmd
}

func showStats(out io.Writer, asJSON bool, store ports.HistoryRepository) error {
	records, err := store.Records(0, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	metrics := recorder.Summarize(slices.Values(records), time.Now())
	if asJSON {
		return helpers.WriteJSON(out, metrics)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	helpers.RenderMetrics(out, metrics)
	return nil
}

func newHistoryExportCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), rt)
			if err != nil {
				return err
			}
			if err := store.ExportJSON(args[0]); err != nil {
				return fmt.Errorf("export history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", args[0])
			return nil
		},
	}
}

func newHistoryClearCommand(rt *Runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all persisted records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), rt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Delete all records in %s? [y/N]: ", store.Path())
				if !readYes(cmd.InOrStdin()) {
					fmt.Fprintln(out, MsgClearCancelled)
					return nil
				}
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Fprintln(out, MsgHistoryCleared)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func listRecords(ctx context.Context, out io.Writer, rt *Runtime, limit int, search string) error {
	store, err := historyStore(ctx, rt)
	if err != nil {
		return err
	}
	records, err := store.Records(limit, search)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if rt.jsonOutput() {
		return helpers.WriteJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	helpers.RenderRecords(out, records)
	return nil
}

func historyStore(ctx context.Context, rt *Runtime) (ports.HistoryRepository, error) {
	c, err := rt.Container(ctx)
	if err != nil {
		return nil, err
	}
	if c.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return c.HistoryStore, nil
}

func readYes(in io.Reader) bool {
	var answer string
	if _, err := fmt.Fscanln(in, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
