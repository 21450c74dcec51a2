package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

const defaultContent = "Sample content"

// FileHandler performs file_operation intents on an afero filesystem.
// The intent target names the operation; relative paths resolve against baseDir.
type FileHandler struct {
	fs      afero.Fs
	baseDir string
}

// NewFileHandler builds a handler rooted at baseDir.
func NewFileHandler(fs afero.Fs, baseDir string) *FileHandler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileHandler{fs: fs, baseDir: baseDir}
}

// Execute implements ports.ActionHandler.
func (h *FileHandler) Execute(ctx context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	name := in.Param(domain.ParamFilename, domain.DefaultFilename)
	path := h.resolve(name)

	switch operation := strings.ToLower(in.Target); operation {
	case "create":
		return h.create(path, name)
	case "write", "save":
		content := in.Param(domain.ParamContent, defaultContent)
		if err := h.ensureParent(path); err != nil {
			return ports.HandlerOutcome{}, err
		}
		if err := afero.WriteFile(h.fs, path, []byte(content), domain.FilePermissions); err != nil {
			return ports.HandlerOutcome{}, err
		}
		return ok("Written content to: " + name), nil
	case "delete":
		exists, err := afero.Exists(h.fs, path)
		if err != nil {
			return ports.HandlerOutcome{}, err
		}
		if !exists {
			return failed("File not found: " + name), nil
		}
		if err := h.fs.RemoveAll(path); err != nil {
			return ports.HandlerOutcome{}, err
		}
		return ok("Deleted file: " + name), nil
	case "copy", "move", "rename":
		dest := in.Param(domain.ParamDestination, "")
		if dest == "" {
			return failed(fmt.Sprintf("File operation '%s' requires a destination", operation)), nil
		}
		return h.transfer(operation, path, name, h.resolve(dest), dest)
	case "organize":
		if in.Param(domain.ParamFilename, "") == "" {
			return h.organize(h.baseDir)
		}
		if fi, err := h.fs.Stat(path); err != nil || !fi.IsDir() {
			return failed("Folder not found: " + name), nil
		}
		return h.organize(path)
	default:
		return failed(fmt.Sprintf("File operation '%s' not implemented", in.Target)), nil
	}
}

func (h *FileHandler) create(path, name string) (ports.HandlerOutcome, error) {
	if err := h.ensureParent(path); err != nil {
		return ports.HandlerOutcome{}, err
	}
	if filepath.Ext(name) == "" {
		if err := h.fs.MkdirAll(path, domain.DirectoryPermissions); err != nil {
			return ports.HandlerOutcome{}, err
		}
		return ok("Created folder: " + name), nil
	}
	f, err := h.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, domain.FilePermissions)
	if err != nil {
		return ports.HandlerOutcome{}, err
	}
	if err := f.Close(); err != nil {
		return ports.HandlerOutcome{}, err
	}
	return ok("Created file: " + name), nil
}

func (h *FileHandler) transfer(operation, src, srcName, dest, destName string) (ports.HandlerOutcome, error) {
	fi, err := h.fs.Stat(src)
	if os.IsNotExist(err) {
		return failed("File not found: " + srcName), nil
	}
	if err != nil {
		return ports.HandlerOutcome{}, err
	}
	if di, err := h.fs.Stat(dest); err == nil && di.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}
	if err := h.ensureParent(dest); err != nil {
		return ports.HandlerOutcome{}, err
	}
	if operation != "copy" {
		if err := h.fs.Rename(src, dest); err != nil {
			return ports.HandlerOutcome{}, err
		}
		return ok(fmt.Sprintf("Moved %s to %s", srcName, destName)), nil
	}
	if fi.IsDir() {
		return failed("Copying folders is not supported: " + srcName), nil
	}
	data, err := afero.ReadFile(h.fs, src)
	if err != nil {
		return ports.HandlerOutcome{}, err
	}
	if err := afero.WriteFile(h.fs, dest, data, fi.Mode().Perm()); err != nil {
		return ports.HandlerOutcome{}, err
	}
	return ok(fmt.Sprintf("Copied %s to %s", srcName, destName)), nil
}

// organize moves the files of dir into subfolders named after their extension.
func (h *FileHandler) organize(dir string) (ports.HandlerOutcome, error) {
	entries, err := afero.ReadDir(h.fs, dir)
	if err != nil {
		return ports.HandlerOutcome{}, err
	}
	moved := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), ".")
		if ext == "" {
			ext = "other"
		}
		target := filepath.Join(dir, ext)
		if err := h.fs.MkdirAll(target, domain.DirectoryPermissions); err != nil {
			return ports.HandlerOutcome{}, err
		}
		if err := h.fs.Rename(filepath.Join(dir, entry.Name()), filepath.Join(target, entry.Name())); err != nil {
			return ports.HandlerOutcome{}, err
		}
		moved++
	}
	return ok(fmt.Sprintf("Organized %d files in %s", moved, dir)), nil
}

func (h *FileHandler) resolve(name string) string {
	if filepath.IsAbs(name) || h.baseDir == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(h.baseDir, name)
}

func (h *FileHandler) ensureParent(path string) error {
	return h.fs.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

// SupportedActions implements ports.ActionHandler.
func (h *FileHandler) SupportedActions() []domain.Action {
	return []domain.Action{domain.ActionFileOperation}
}

func ok(msg string) ports.HandlerOutcome {
	return ports.HandlerOutcome{Success: true, Message: msg}
}

func failed(msg string) ports.HandlerOutcome {
	return ports.HandlerOutcome{Message: msg}
}

var _ ports.ActionHandler = (*FileHandler)(nil)
