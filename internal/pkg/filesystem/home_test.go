package filesystem

import (
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := UserHomeDir()
	tests := map[string]string{
		"~":               home,
		"~/.smartos/x":    filepath.Join(home, ".smartos", "x"),
		"/abs/path":       "/abs/path",
		"relative/~/file": "relative/~/file",
	}
	for in, want := range tests {
		if got := ExpandHome(in); got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStateDir(t *testing.T) {
	want := filepath.Join(UserHomeDir(), ".smartos", "logs")
	if got := StateDir("logs"); got != want {
		t.Errorf("StateDir = %q, want %q", got, want)
	}
}
