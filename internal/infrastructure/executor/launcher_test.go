package executor

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLauncherRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	l := NewLocalLauncher("/bin/sh", nil)

	out, err := l.Run(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = l.Run(context.Background(), "echo failing >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 3")
	assert.Equal(t, "failing", out)

	_, err = l.Run(context.Background(), "  ")
	assert.Error(t, err)
}

func TestLocalLauncherStart(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	l := NewLocalLauncher("/bin/sh", nil)
	require.NoError(t, l.Start(context.Background(), "true"))
	assert.Error(t, l.Start(context.Background(), ""))
}

func TestDryRunLauncher(t *testing.T) {
	var d DryRunLauncher
	require.NoError(t, d.Start(context.Background(), "notepad"))
	out, err := d.Run(context.Background(), "shutdown /s /t 60")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, []string{"notepad", "shutdown /s /t 60"}, d.Commands())
}
