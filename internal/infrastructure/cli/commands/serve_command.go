package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/smartos-go/internal/infrastructure/api"
)

const shutdownGrace = 5 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand(rt *Runtime) *cobra.Command {
	var (
		addr     string
		basePath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command pipeline over HTTP",
		Long: `Serve the command pipeline over HTTP.

Actions that need confirmation are held and listed under /confirmations
until a client approves or declines them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			handler, err := api.New(api.Config{
				Commands:      c.Assistant,
				Records:       c.Recorder,
				Confirmations: c.Dispatcher,
				Health:        c.DoctorService,
				BasePath:      basePath,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
			c.Logger.Info("http api listening", map[string]interface{}{"addr": addr, "base_path": basePath})
			fmt.Fprintf(cmd.OutOrStdout(), "Serving SmartOS API on http://%s%s (OpenAPI at /openapi.json, docs at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", DefaultServeAddr, "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}
