package handlers

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// SystemHandler runs power and session commands for system_control intents.
type SystemHandler struct {
	launcher ports.ProcessLauncher
	goos     string
}

// NewSystemHandler builds a handler for goos (runtime.GOOS when empty).
func NewSystemHandler(launcher ports.ProcessLauncher, goos string) *SystemHandler {
	if goos == "" {
		goos = runtime.GOOS
	}
	return &SystemHandler{launcher: launcher, goos: goos}
}

// Execute implements ports.ActionHandler.
func (h *SystemHandler) Execute(ctx context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	target := strings.ToLower(strings.TrimSpace(in.Target))
	wait, err := delay(in)
	if err != nil {
		return failed("Invalid delay: " + err.Error()), nil
	}
	command := h.command(target, wait)
	if command == "" {
		return failed(fmt.Sprintf("System control '%s' not supported", in.Target)), nil
	}
	if _, err := h.launcher.Run(ctx, command); err != nil {
		return ports.HandlerOutcome{}, err
	}
	return ok(fmt.Sprintf("System %s initiated", target)), nil
}

// SupportedActions implements ports.ActionHandler.
func (h *SystemHandler) SupportedActions() []domain.Action {
	return []domain.Action{domain.ActionSystemControl}
}

func (h *SystemHandler) command(target string, wait time.Duration) string {
	seconds := int(wait / time.Second)
	switch h.goos {
	case "windows":
		switch target {
		case "shutdown":
			return fmt.Sprintf("shutdown /s /t %d", seconds)
		case "restart":
			return fmt.Sprintf("shutdown /r /t %d", seconds)
		case "lock":
			return "rundll32.exe user32.dll,LockWorkStation"
		case "sleep":
			return "rundll32.exe powrprof.dll,SetSuspendState 0,1,0"
		case "hibernate":
			return "shutdown /h"
		}
	case "darwin":
		switch target {
		case "shutdown":
			return "sudo shutdown -h " + minutes(wait)
		case "restart":
			return "sudo shutdown -r " + minutes(wait)
		case "lock":
			return "pmset displaysleepnow"
		case "sleep":
			return "pmset sleepnow"
		}
	default:
		switch target {
		case "shutdown":
			return "sudo shutdown -h " + minutes(wait)
		case "restart":
			return "sudo shutdown -r " + minutes(wait)
		case "lock":
			return "loginctl lock-session"
		case "sleep":
			return "systemctl suspend"
		case "hibernate":
			return "systemctl hibernate"
		}
	}
	return ""
}

// delay reads delay_seconds. An unusable value is an error, never the default.
func delay(in domain.Intent) (time.Duration, error) {
	raw := in.Param(domain.ParamDelaySeconds, "")
	if raw == "" {
		return domain.DefaultShutdownDelay, nil
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		return 0, fmt.Errorf("%s seconds exceeds the %d second maximum", raw, domain.MaxDelaySeconds)
	case err != nil:
		return 0, fmt.Errorf("%q is not a number of seconds", raw)
	case seconds < 0:
		return 0, fmt.Errorf("%d seconds is negative", seconds)
	case seconds > domain.MaxDelaySeconds:
		return 0, fmt.Errorf("%d seconds exceeds the %d second maximum", seconds, domain.MaxDelaySeconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// minutes renders a shutdown(8) time argument, rounding up.
func minutes(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	m := int((d + time.Minute - 1) / time.Minute)
	return "+" + strconv.Itoa(m)
}

var _ ports.ActionHandler = (*SystemHandler)(nil)
