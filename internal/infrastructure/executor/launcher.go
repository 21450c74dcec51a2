package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/doeshing/smartos-go/internal/ports"
)

// LocalLauncher runs command lines through the host shell.
type LocalLauncher struct {
	shell string
	flag  string
	log   ports.Logger
}

// NewLocalLauncher builds a launcher; shell defaults to $SHELL, then /bin/sh
// (cmd.exe on Windows).
func NewLocalLauncher(shell string, log ports.Logger) *LocalLauncher {
	if runtime.GOOS == "windows" {
		if shell == "" {
			shell = "cmd"
		}
		return &LocalLauncher{shell: shell, flag: "/C", log: log}
	}
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &LocalLauncher{shell: shell, flag: "-c", log: log}
}

// Start implements ports.ProcessLauncher. The child is reaped in the background.
func (l *LocalLauncher) Start(ctx context.Context, commandLine string) error {
	if strings.TrimSpace(commandLine) == "" {
		return fmt.Errorf("empty command line")
	}
	// not tied to ctx: launched applications outlive the request
	c := exec.Command(l.shell, l.flag, commandLine)
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %q: %w", commandLine, err)
	}
	l.debug("process started", map[string]interface{}{"command": commandLine, "pid": c.Process.Pid})
	go func() { _ = c.Wait() }()
	return nil
}

// Run implements ports.ProcessLauncher and returns combined output.
func (l *LocalLauncher) Run(ctx context.Context, commandLine string) (string, error) {
	if strings.TrimSpace(commandLine) == "" {
		return "", fmt.Errorf("empty command line")
	}
	c := exec.CommandContext(ctx, l.shell, l.flag, commandLine)
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	err := c.Run()
	output := strings.TrimSpace(out.String())
	if exitErr, ok := err.(*exec.ExitError); ok {
		return output, fmt.Errorf("%q exited with code %d: %w", commandLine, exitErr.ExitCode(), err)
	}
	if err != nil {
		return output, fmt.Errorf("run %q: %w", commandLine, err)
	}
	l.debug("process finished", map[string]interface{}{"command": commandLine})
	return output, nil
}

func (l *LocalLauncher) debug(msg string, fields map[string]interface{}) {
	if l.log != nil {
		l.log.Debug(msg, fields)
	}
}

// DryRunLauncher records command lines instead of running them.
type DryRunLauncher struct {
	mu       sync.Mutex
	commands []string
}

// Start implements ports.ProcessLauncher.
func (d *DryRunLauncher) Start(_ context.Context, commandLine string) error {
	d.record(commandLine)
	return nil
}

// Run implements ports.ProcessLauncher.
func (d *DryRunLauncher) Run(_ context.Context, commandLine string) (string, error) {
	d.record(commandLine)
	return "", nil
}

// Commands returns what would have been executed, in order.
func (d *DryRunLauncher) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

func (d *DryRunLauncher) record(commandLine string) {
	d.mu.Lock()
	d.commands = append(d.commands, commandLine)
	d.mu.Unlock()
}

var (
	_ ports.ProcessLauncher = (*LocalLauncher)(nil)
	_ ports.ProcessLauncher = (*DryRunLauncher)(nil)
)
