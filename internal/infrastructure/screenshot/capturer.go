package screenshot

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/afero"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/filesystem"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Capturer shells out to the platform screenshot tool and stores
// error_<timestamp>.png files under dir.
type Capturer struct {
	launcher ports.ProcessLauncher
	fs       afero.Fs
	dir      string
	goos     string
	now      func() time.Time
}

// NewCapturer builds a capturer; dir defaults to ~/.smartos/screenshots.
func NewCapturer(launcher ports.ProcessLauncher, fs afero.Fs, dir string) *Capturer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = filesystem.StateDir("screenshots")
	}
	return &Capturer{launcher: launcher, fs: fs, dir: dir, goos: runtime.GOOS, now: time.Now}
}

// Capture implements ports.ScreenshotCapturer.
func (c *Capturer) Capture(ctx context.Context) (string, error) {
	if err := c.fs.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return "", err
	}
	path := filepath.Join(c.dir, fmt.Sprintf("error_%s.png", c.now().Format("20060102_150405")))
	command := captureCommand(c.goos, path)
	if command == "" {
		return "", fmt.Errorf("screenshots are not supported on %s", c.goos)
	}
	if _, err := c.launcher.Run(ctx, command); err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if exists, err := afero.Exists(c.fs, path); err != nil || !exists {
		return "", fmt.Errorf("screenshot tool did not write %s", path)
	}
	return path, nil
}

func captureCommand(goos, path string) string {
	switch goos {
	case "darwin":
		return fmt.Sprintf("screencapture -x %q", path)
	case "linux":
		return fmt.Sprintf("import -window root %q", path)
	case "windows":
		return fmt.Sprintf(`powershell -NoProfile -Command "Add-Type -AssemblyName System.Windows.Forms,System.Drawing; `+
			`$b=[System.Windows.Forms.Screen]::PrimaryScreen.Bounds; $i=New-Object System.Drawing.Bitmap $b.Width,$b.Height; `+
			`[System.Drawing.Graphics]::FromImage($i).CopyFromScreen($b.Location,[System.Drawing.Point]::Empty,$b.Size); $i.Save('%s')"`, path)
	default:
		return ""
	}
}

var _ ports.ScreenshotCapturer = (*Capturer)(nil)
