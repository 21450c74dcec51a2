package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	configapp "github.com/doeshing/smartos-go/internal/application/config"
	"github.com/doeshing/smartos-go/internal/domain"
	configinfra "github.com/doeshing/smartos-go/internal/infrastructure/config"
)

const (
	envKeyEditor                = "EDITOR"
	defaultEditor               = "vi"
	msgConfigurationValid       = "Configuration valid"
	msgNoDifferencesFromDefault = "No differences from default configuration."
)

// NewConfigCommand creates the config command with all subcommands. It reads
// the file directly so that an invalid configuration can still be inspected.
func NewConfigCommand(rt *Runtime) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect SmartOS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), rt.loader())
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show full configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd.Context(), cmd.OutOrStdout(), rt.loader())
			},
		},
		&cobra.Command{
			Use:   "get <key.path>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getConfigurationValue(cmd.Context(), cmd.OutOrStdout(), rt.loader(), args[0])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), rt.loader().Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := rt.loader().Load(cmd.Context())
				if err != nil {
					return err
				}
				if err := configapp.Validate(cfg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msgConfigurationValid)
				return nil
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show differences from the default configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfigurationDiff(cmd.Context(), cmd.OutOrStdout(), rt.loader())
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Open the configuration file in $EDITOR",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return editConfigurationInEditor(cmd.Context(), rt.loader())
			},
		},
	)

	return configCmd
}

func (r *Runtime) loader() *configinfra.FileLoader {
	var path string
	if r.Options != nil {
		path = r.Options().ConfigPath
	}
	return configinfra.NewFileLoader(path)
}

func showConfiguration(ctx context.Context, out io.Writer, loader *configinfra.FileLoader) error {
	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func getConfigurationValue(ctx context.Context, out io.Writer, loader *configinfra.FileLoader, keyPath string) error {
	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfgMap, err := configToMap(cfg)
	if err != nil {
		return err
	}
	value, found := lookupKeyPath(cfgMap, strings.Split(keyPath, "."))
	if !found {
		return fmt.Errorf("key %s not found in configuration", keyPath)
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func showConfigurationDiff(ctx context.Context, out io.Writer, loader *configinfra.FileLoader) error {
	current, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current configuration: %w", err)
	}
	defaults, err := configinfra.Default()
	if err != nil {
		return err
	}
	diff := cmp.Diff(defaults, current)
	if diff == "" {
		fmt.Fprintln(out, msgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(out, diff)
	return nil
}

func editConfigurationInEditor(ctx context.Context, loader *configinfra.FileLoader) error {
	// Load first so a missing file is created with defaults.
	if _, err := loader.Load(ctx); err != nil {
		return err
	}
	editor := os.Getenv(envKeyEditor)
	if editor == "" {
		editor = defaultEditor
	}
	cmd := exec.CommandContext(ctx, editor, loader.Path())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editor, err)
	}
	return nil
}

func configToMap(cfg domain.Config) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var cfgMap map[string]interface{}
	if err := yaml.Unmarshal(raw, &cfgMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to map: %w", err)
	}
	return cfgMap, nil
}

func lookupKeyPath(m map[string]interface{}, keys []string) (interface{}, bool) {
	var current interface{} = m
	for _, key := range keys {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
