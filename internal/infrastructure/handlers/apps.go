// Package handlers contains the ActionHandler adapters for the built-in
// actions. Every operating-system effect goes through a ports.ProcessLauncher
// or an afero.Fs so the handlers can be exercised without touching the host.
package handlers

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// PlatformAppCommands returns the launch command per application for goos.
func PlatformAppCommands(goos string) map[string]string {
	switch goos {
	case "windows":
		return map[string]string{
			"notepad":    "notepad.exe",
			"calculator": "calc.exe",
			"browser":    "start chrome",
			"explorer":   "explorer.exe",
			"cmd":        "start cmd.exe",
			"powershell": "start powershell.exe",
			"code":       "code",
			"word":       "start winword.exe",
			"excel":      "start excel.exe",
		}
	case "darwin":
		return map[string]string{
			"notepad":    "open -a TextEdit",
			"calculator": "open -a Calculator",
			"browser":    "open -a Safari",
			"explorer":   "open -a Finder",
			"cmd":        "open -a Terminal",
			"code":       "code",
			"word":       "open -a 'Microsoft Word'",
			"excel":      "open -a 'Microsoft Excel'",
		}
	default:
		return map[string]string{
			"notepad":    "gedit",
			"calculator": "gnome-calculator",
			"browser":    "firefox",
			"explorer":   "nautilus",
			"cmd":        "gnome-terminal",
			"powershell": "pwsh",
			"code":       "code",
			"word":       "libreoffice --writer",
			"excel":      "libreoffice --calc",
		}
	}
}

// AppHandler launches applications for open_application intents.
type AppHandler struct {
	launcher ports.ProcessLauncher
	commands map[string]string
}

// NewAppHandler merges the platform table with supported_apps entries that
// carry their own command.
func NewAppHandler(launcher ports.ProcessLauncher, goos string, apps []domain.AppDefinition) *AppHandler {
	if goos == "" {
		goos = runtime.GOOS
	}
	commands := PlatformAppCommands(goos)
	for _, app := range apps {
		if strings.TrimSpace(app.Command) != "" {
			commands[strings.ToLower(app.Name)] = app.Command
		}
	}
	return &AppHandler{launcher: launcher, commands: commands}
}

// Apps lists launchable application names.
func (h *AppHandler) Apps() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute implements ports.ActionHandler.
func (h *AppHandler) Execute(ctx context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	name := strings.ToLower(strings.TrimSpace(in.Target))
	command, ok := h.commands[name]
	if !ok {
		return ports.HandlerOutcome{Message: fmt.Sprintf("Application '%s' not supported or not found", in.Target)}, nil
	}
	if err := h.launcher.Start(ctx, command); err != nil {
		return ports.HandlerOutcome{}, fmt.Errorf("launch %s: %w", name, err)
	}
	return ports.HandlerOutcome{Success: true, Message: "Successfully launched " + name}, nil
}

// SupportedActions implements ports.ActionHandler.
func (h *AppHandler) SupportedActions() []domain.Action {
	return []domain.Action{domain.ActionOpenApplication}
}

var _ ports.ActionHandler = (*AppHandler)(nil)
