package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags "-X ...commands.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show SmartOS version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			displayVersionInformation(cmd.OutOrStdout())
			return nil
		},
	}
}

func displayVersionInformation(out io.Writer) {
	fmt.Fprintf(out, "SmartOS version %s\n", Version)
	if Commit != "" {
		fmt.Fprintf(out, "Commit: %s\n", Commit)
	}
	if BuildDate != "" {
		fmt.Fprintf(out, "Built: %s\n", BuildDate)
	}
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
}
