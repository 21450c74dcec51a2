package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/infrastructure/cli/helpers"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration, handlers, policy and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			if c.DoctorService == nil {
				return errors.New(ErrDoctorServiceUnavailable)
			}

			report, err := c.DoctorService.Run(cmd.Context())
			// Display report even if there were errors
			if rt.jsonOutput() {
				_ = helpers.WriteJSON(cmd.OutOrStdout(), report)
			} else {
				helpers.RenderHealth(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			if !report.Healthy() {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
