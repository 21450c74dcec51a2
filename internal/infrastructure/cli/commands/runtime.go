// Package commands holds the cobra subcommands of the smartos CLI.
package commands

import (
	"context"
	"io"
	"sync"

	"github.com/doeshing/smartos-go/internal/app"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Console reads commands and asks for confirmations on a terminal.
type Console interface {
	ports.ConfirmationPrompter
	ports.SpeechRecognizer
}

// Runtime builds the container on first use so that help and version never
// touch the config file or the history store.
type Runtime struct {
	// Options returns the container options once flags are parsed.
	Options func() app.Options
	// Console creates the interactive console for a command's streams.
	Console func(in io.Reader, out io.Writer) Console
	// JSON reports whether output should be machine-readable.
	JSON func() bool

	Build func(ctx context.Context, opts app.Options) (*app.Container, error)

	mu        sync.Mutex
	container *app.Container
}

// Container returns the shared container, building it if needed.
func (r *Runtime) Container(ctx context.Context) (*app.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.container != nil {
		return r.container, nil
	}
	build := r.Build
	if build == nil {
		build = app.BuildContainer
	}
	var opts app.Options
	if r.Options != nil {
		opts = r.Options()
	}
	c, err := build(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.container = c
	return c, nil
}

// Interactive returns the container with a console attached to the assistant.
func (r *Runtime) Interactive(ctx context.Context, in io.Reader, out io.Writer) (*app.Container, Console, error) {
	c, err := r.Container(ctx)
	if err != nil {
		return nil, nil, err
	}
	if r.Console == nil {
		return c, nil, nil
	}
	console := r.Console(in, out)
	c.Assistant.Prompter = console
	if sp, ok := console.(ports.Speaker); ok && c.Config.VoiceEnabled {
		c.Assistant.Speaker = sp
	}
	return c, console, nil
}

func (r *Runtime) jsonOutput() bool {
	return r.JSON != nil && r.JSON()
}

// Close releases the container if one was built.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.container == nil {
		return nil
	}
	err := r.container.Close()
	r.container = nil
	return err
}
