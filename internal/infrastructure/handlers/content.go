package handlers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

var contentTemplates = map[string]string{
	"essay":    "# Essay on %s\n\nIntroduction:\n\nBody:\n\nConclusion:\n",
	"document": "Document: %s\n\nContent goes here...\n",
	"letter":   "Dear [Recipient],\n\nRegarding: %s\n\nSincerely,\n[Your Name]\n",
	"report":   "# Report: %s\n\n## Executive Summary\n\n## Findings\n\n## Recommendations\n",
	"email":    "Subject: %s\n\nHi,\n\n\n\nBest regards,\n[Your Name]\n",
	"summary":  "# Summary: %s\n\n- \n",
	"notes":    "Notes: %s\n\n- \n",
}

// ContentHandler writes a templated draft for content_creation intents to
// <type>_<topic>.txt and optionally opens it in an editor.
type ContentHandler struct {
	fs       afero.Fs
	baseDir  string
	launcher ports.ProcessLauncher
	editor   string
}

// NewContentHandler builds a handler. When editor is set the draft is opened
// with it through launcher.
func NewContentHandler(fs afero.Fs, baseDir string, launcher ports.ProcessLauncher, editor string) *ContentHandler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ContentHandler{fs: fs, baseDir: baseDir, launcher: launcher, editor: editor}
}

// Execute implements ports.ActionHandler.
func (h *ContentHandler) Execute(ctx context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	kind := domain.ContentKind(in)
	topic := in.Param(domain.ParamTopic, domain.DefaultTopic)
	body := fmt.Sprintf("Content about %s\n", topic)
	if tmpl, ok := contentTemplates[kind]; ok {
		body = fmt.Sprintf(tmpl, topic)
	}

	name := in.Param(domain.ParamFilename, domain.DraftFilename(kind, topic))
	path := name
	if !filepath.IsAbs(path) && h.baseDir != "" {
		path = filepath.Join(h.baseDir, name)
	}
	if err := h.fs.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return ports.HandlerOutcome{}, err
	}
	if err := afero.WriteFile(h.fs, path, []byte(body), domain.FilePermissions); err != nil {
		return ports.HandlerOutcome{}, err
	}

	msg := fmt.Sprintf("Created %s about %s: %s", kind, topic, name)
	if h.editor != "" && h.launcher != nil {
		if err := h.launcher.Start(ctx, fmt.Sprintf("%s %q", h.editor, path)); err != nil {
			msg += " (could not open editor)"
		}
	}
	return ok(msg), nil
}

// SupportedActions implements ports.ActionHandler.
func (h *ContentHandler) SupportedActions() []domain.Action {
	return []domain.Action{domain.ActionContentCreation}
}

var _ ports.ActionHandler = (*ContentHandler)(nil)
