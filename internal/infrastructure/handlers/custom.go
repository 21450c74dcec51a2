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

// CustomHandler runs the command lines configured under custom_commands.
// "{target}" and "{<parameter>}" placeholders are substituted, shell-quoted,
// before running.
type CustomHandler struct {
	launcher ports.ProcessLauncher
	goos     string
	commands map[domain.Action]string
}

// NewCustomHandler indexes commands by action. Values are quoted for the
// shell of goos (runtime.GOOS when empty).
func NewCustomHandler(launcher ports.ProcessLauncher, goos string, commands []domain.CustomCommand) *CustomHandler {
	if goos == "" {
		goos = runtime.GOOS
	}
	h := &CustomHandler{launcher: launcher, goos: goos, commands: make(map[domain.Action]string, len(commands))}
	for _, cc := range commands {
		h.commands[domain.Action(cc.Action)] = cc.Command
	}
	return h
}

// Execute implements ports.ActionHandler.
func (h *CustomHandler) Execute(ctx context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	template, found := h.commands[in.Action]
	if !found {
		return failed(fmt.Sprintf("No command configured for %s", in.Action)), nil
	}
	command := Expand(template, in, h.goos)
	output, err := h.launcher.Run(ctx, command)
	if err != nil {
		return ports.HandlerOutcome{}, err
	}
	msg := "Ran " + command
	if output != "" {
		msg += "\n" + output
	}
	return ok(msg), nil
}

// SupportedActions implements ports.ActionHandler.
func (h *CustomHandler) SupportedActions() []domain.Action {
	actions := make([]domain.Action, 0, len(h.commands))
	for action := range h.commands {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// Expand substitutes placeholders in a command template, quoting each value
// for the shell the launcher uses on goos.
func Expand(template string, in domain.Intent, goos string) string {
	quote := shellQuote
	if goos == "windows" {
		quote = cmdQuote
	}
	pairs := []string{"{target}", quote(in.Target)}
	for key, value := range in.Parameters {
		pairs = append(pairs, "{"+key+"}", quote(value))
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}

// shellQuote single-quotes s for a POSIX shell unless it is a plain word.
func shellQuote(s string) string {
	if s == "" || plainWord(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// cmdQuote double-quotes s for cmd.exe. Quotes are doubled and percent signs
// are escaped outside the quoted run so variables do not expand.
func cmdQuote(s string) string {
	if s == "" || plainWord(s) {
		return s
	}
	s = strings.ReplaceAll(s, `"`, `""`)
	s = strings.ReplaceAll(s, "%", `"^%"`)
	s = strings.ReplaceAll(s, "!", `"^!"`)
	return `"` + s + `"`
}

func plainWord(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./:@+=,", r):
		default:
			return false
		}
	}
	return true
}

var _ ports.ActionHandler = (*CustomHandler)(nil)
