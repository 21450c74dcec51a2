// Package cli wires the smartos cobra command tree.
package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doeshing/smartos-go/internal/app"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/cli/commands"
)

// EnvPrefix namespaces environment overrides, e.g. SMARTOS_THRESHOLD.
const EnvPrefix = "SMARTOS"

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The container is built lazily by
// the subcommands that need it; call Runtime.Close after Execute.
func NewRootCmd(opts Options) (*cobra.Command, *commands.Runtime) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rt := &commands.Runtime{
		Options: func() app.Options { return containerOptions(v, opts) },
		JSON:    func() bool { return v.GetBool("json") },
		Console: func(in io.Reader, out io.Writer) commands.Console {
			p := NewPrompter(in, out)
			if v.GetBool("tui") {
				return tuiConsole{p}
			}
			return p
		},
	}

	root := &cobra.Command{
		Use:   "smartos [command...]",
		Short: "SmartOS - natural-language desktop commands",
		Long: `SmartOS turns plain-English commands such as "open calculator" or
"create a file called notes.txt" into desktop actions, records every
execution and scores recognition against a test corpus.

With arguments it runs them as one command; without, it starts the
interactive loop.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				repl := commands.NewReplCommand(rt)
				repl.SetContext(cmd.Context())
				repl.SetIn(cmd.InOrStdin())
				repl.SetOut(cmd.OutOrStdout())
				return repl.RunE(repl, nil)
			}
			run := commands.NewRunCommand(rt)
			run.SetContext(cmd.Context())
			run.SetIn(cmd.InOrStdin())
			run.SetOut(cmd.OutOrStdout())
			run.SetErr(cmd.ErrOrStderr())
			return run.RunE(run, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ~/.smartos/config.yaml, or $SMARTOS_CONFIG)")
	flags.BoolP("verbose", "v", opts.Verbose, "debug logging")
	flags.Bool("dry-run", false, "simulate actions instead of executing them")
	flags.String("log-level", "", "override log_level (DEBUG, INFO, WARN, ERROR)")
	flags.Float64("threshold", 0, "override confidence_threshold")
	flags.Float64("timeout", 0, "override response_timeout in seconds")
	flags.Bool("fallback", true, "ask for clarification when nothing matches")
	flags.Bool("screenshots", false, "capture the screen when an action fails")
	flags.Bool("tui", false, "confirm actions with a terminal form")
	flags.Bool("json", false, "machine-readable output")
	for _, name := range []string{"config", "verbose", "dry-run", "log-level", "threshold", "timeout", "fallback", "screenshots", "tui", "json"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		commands.NewRunCommand(rt),
		commands.NewReplCommand(rt),
		commands.NewEvalCommand(rt),
		commands.NewHistoryCommand(rt),
		commands.NewRulesCommand(rt),
		commands.NewServeCommand(rt),
		commands.NewDoctorCommand(rt),
		commands.NewConfigCommand(rt),
		commands.NewVersionCommand(),
	)
	return root, rt
}

// containerOptions maps flags and SMARTOS_* variables onto the loaded
// configuration. Only values that were explicitly set override the file.
func containerOptions(v *viper.Viper, opts Options) app.Options {
	return app.Options{
		ConfigPath: v.GetString("config"),
		Verbose:    opts.Verbose || v.GetBool("verbose"),
		DryRun:     v.GetBool("dry-run"),
		Override: func(cfg *domain.Config) {
			if v.IsSet("log-level") && v.GetString("log-level") != "" {
				cfg.LogLevel = strings.ToUpper(v.GetString("log-level"))
			}
			if v.IsSet("threshold") {
				cfg.ConfidenceThreshold = v.GetFloat64("threshold")
			}
			if v.IsSet("timeout") {
				cfg.ResponseTimeout = v.GetFloat64("timeout")
			}
			if v.IsSet("fallback") {
				cfg.FallbackMode = v.GetBool("fallback")
			}
			if v.IsSet("screenshots") {
				cfg.ScreenshotOnError = v.GetBool("screenshots")
			}
		},
	}
}

// tuiConsole reads lines from stdin but confirms with a huh form.
type tuiConsole struct {
	*Prompter
}

func (t tuiConsole) Confirm(intent domain.Intent, reasons []string) (bool, error) {
	return HuhPrompter{}.Confirm(intent, reasons)
}
