package screenshot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// fakeTool writes the file named in the last quoted argument.
type fakeTool struct {
	fs       afero.Fs
	commands []string
	skip     bool
}

func (f *fakeTool) Start(context.Context, string) error { return nil }

func (f *fakeTool) Run(_ context.Context, commandLine string) (string, error) {
	f.commands = append(f.commands, commandLine)
	if !f.skip {
		parts := strings.Split(commandLine, `"`)
		_ = afero.WriteFile(f.fs, parts[len(parts)-2], []byte("png"), 0o644)
	}
	return "", nil
}

func newTestCapturer(tool *fakeTool) *Capturer {
	c := NewCapturer(tool, tool.fs, "/shots")
	c.goos = "darwin"
	c.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return c
}

func TestCapture(t *testing.T) {
	tool := &fakeTool{fs: afero.NewMemMapFs()}
	path, err := newTestCapturer(tool).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if path != "/shots/error_20240501_093000.png" {
		t.Errorf("path = %q", path)
	}
	if len(tool.commands) != 1 || !strings.HasPrefix(tool.commands[0], "screencapture -x") {
		t.Errorf("commands = %v", tool.commands)
	}
}

func TestCaptureMissingOutput(t *testing.T) {
	tool := &fakeTool{fs: afero.NewMemMapFs(), skip: true}
	if _, err := newTestCapturer(tool).Capture(context.Background()); err == nil {
		t.Fatal("expected error when the tool wrote nothing")
	}
}

func TestCaptureUnsupportedPlatform(t *testing.T) {
	tool := &fakeTool{fs: afero.NewMemMapFs()}
	c := newTestCapturer(tool)
	c.goos = "plan9"
	if _, err := c.Capture(context.Background()); err == nil {
		t.Fatal("expected unsupported platform error")
	}
}
