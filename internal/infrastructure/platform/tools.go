// Package platform detects the desktop tools the handlers shell out to.
package platform

import (
	"os/exec"
	"runtime"
	"sort"
)

// ToolProbe reports which platform tools are on PATH.
type ToolProbe struct {
	goos     string
	lookPath func(string) (string, error)
}

// NewToolProbe probes the current OS.
func NewToolProbe() *ToolProbe {
	return &ToolProbe{goos: runtime.GOOS, lookPath: exec.LookPath}
}

// RequiredTools lists the executables used to launch apps, run power
// actions and capture screenshots on goos.
func RequiredTools(goos string) []string {
	switch goos {
	case "windows":
		return []string{"cmd", "powershell", "rundll32", "shutdown"}
	case "darwin":
		return []string{"open", "pmset", "screencapture", "shutdown"}
	case "linux":
		return []string{"import", "loginctl", "shutdown", "systemctl", "xdg-open"}
	default:
		return nil
	}
}

// Required lists the tools for the probed OS.
func (p *ToolProbe) Required() []string {
	return RequiredTools(p.goos)
}

// Missing returns required tools not found on PATH, sorted.
func (p *ToolProbe) Missing() []string {
	var missing []string
	for _, tool := range p.Required() {
		if _, err := p.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	sort.Strings(missing)
	return missing
}
