// Package assistant wires recognition, dispatch and recording into the
// single command pipeline used by the CLI, the REPL and the HTTP API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doeshing/smartos-go/internal/application/dispatch"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Matcher recognizes commands.
type Matcher interface {
	Match(cmd domain.Command) domain.Intent
}

// Dispatcher executes intents and settles confirmations.
type Dispatcher interface {
	Dispatch(ctx context.Context, in domain.Intent) domain.ExecutionResult
	Resolve(ctx context.Context, id string, approved bool) domain.ExecutionResult
	Submit(ctx context.Context, in domain.Intent) *dispatch.Job
	Lookup(id string) (dispatch.Pending, bool)
}

// Recorder stores executions.
type Recorder interface {
	Record(cmd domain.Command, in domain.Intent, result domain.ExecutionResult) domain.ExecutionRecord
}

// Response is what the pipeline returns for one command.
type Response struct {
	Record        domain.ExecutionRecord `json:"record"`
	Reply         string                 `json:"reply"`
	Clarification bool                   `json:"clarification,omitempty"`
}

// Service orchestrates the command lifecycle end-to-end.
type Service struct {
	Matcher    Matcher
	Dispatcher Dispatcher
	Recorder   Recorder
	Prompter   ports.ConfirmationPrompter
	Speaker    ports.Speaker
	Logger     ports.Logger

	// FallbackMode answers unrecognized commands with a clarification
	// prompt instead of ErrUnrecognized.
	FallbackMode bool
	Now          func() time.Time

	pending sync.Map // confirmation id -> domain.Command
}

func (s *Service) ready() error {
	if s.Matcher == nil || s.Dispatcher == nil || s.Recorder == nil || s.Logger == nil {
		return errors.New("assistant.Service dependencies not satisfied")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Handle processes a single free-text command.
func (s *Service) Handle(ctx context.Context, text string) (Response, error) {
	if err := s.ready(); err != nil {
		return Response{}, err
	}
	cmd := domain.NewCommand(text, s.now())
	if cmd.Text == "" {
		return Response{}, errors.New("empty command")
	}

	in := s.Matcher.Match(cmd)
	s.Logger.Debug("intent recognized", map[string]interface{}{
		"command":    cmd.Text,
		"action":     string(in.Action),
		"target":     in.Target,
		"confidence": in.Confidence,
	})

	result := s.Dispatcher.Dispatch(ctx, in)
	if result.Pending() {
		result = s.confirm(ctx, cmd, in, result)
	}
	rec := s.Recorder.Record(cmd, in, result)

	resp := Response{Record: rec, Reply: result.Message}
	if in.IsUnknown() {
		if !s.FallbackMode {
			return resp, domain.ErrUnrecognized
		}
		resp.Clarification = true
		resp.Reply = Clarify(cmd.Text)
	}
	s.say(ctx, resp.Reply)
	return resp, nil
}

// Clarify is the prompt used for commands nothing matched.
func Clarify(text string) string {
	return fmt.Sprintf("I'm not sure how to handle: '%s'. Could you rephrase?", text)
}

func (s *Service) confirm(ctx context.Context, cmd domain.Command, in domain.Intent, pending domain.ExecutionResult) domain.ExecutionResult {
	if s.Prompter == nil || !s.Prompter.Enabled() {
		s.hold(pending.ConfirmationID, cmd)
		return pending
	}

	var reasons []string
	if p, ok := s.Dispatcher.Lookup(pending.ConfirmationID); ok {
		reasons = p.Reasons
	}
	approved, err := s.Prompter.Confirm(in, reasons)
	if err != nil {
		s.Logger.Warn("confirmation prompt failed; declining", map[string]interface{}{"error": err.Error()})
		approved = false
	}
	return s.Dispatcher.Resolve(ctx, pending.ConfirmationID, approved)
}

// hold remembers the command behind a pending confirmation and forgets
// commands whose confirmation the dispatcher no longer holds (expired).
func (s *Service) hold(id string, cmd domain.Command) {
	s.pending.Range(func(k, _ any) bool {
		if _, ok := s.Dispatcher.Lookup(k.(string)); !ok {
			s.pending.Delete(k)
		}
		return true
	})
	s.pending.Store(id, cmd)
}

// Resolve settles a confirmation left pending by Handle and records the outcome
// against the original command.
func (s *Service) Resolve(ctx context.Context, id string, approved bool) (Response, error) {
	if err := s.ready(); err != nil {
		return Response{}, err
	}
	p, known := s.Dispatcher.Lookup(id)
	held, hadCmd := s.pending.LoadAndDelete(id)
	result := s.Dispatcher.Resolve(ctx, id, approved)
	if !known {
		return Response{Reply: result.Message}, fmt.Errorf("confirmation %s: %w", id, domain.ErrNotFound)
	}

	cmd := domain.NewCommand(string(p.Intent.Action)+" "+p.Intent.Target, s.now())
	if hadCmd {
		cmd = held.(domain.Command)
	}
	rec := s.Recorder.Record(cmd, p.Intent, result)
	s.say(ctx, result.Message)
	return Response{Record: rec, Reply: result.Message}, nil
}

// Task is a command running in the background.
type Task struct {
	Command domain.Command
	Intent  domain.Intent
	done    chan struct{}
	resp    Response
}

// Done is closed once the execution has been recorded.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task is recorded or ctx ends.
func (t *Task) Wait(ctx context.Context) (Response, error) {
	select {
	case <-t.done:
		return t.resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Submit recognizes text now and executes it in the background. Unrecognized
// text fails immediately without fallback mode. Intents that need
// confirmation finish as pending and are settled later through Resolve.
func (s *Service) Submit(ctx context.Context, text string) (*Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cmd := domain.NewCommand(text, s.now())
	if cmd.Text == "" {
		return nil, errors.New("empty command")
	}
	in := s.Matcher.Match(cmd)
	if in.IsUnknown() && !s.FallbackMode {
		s.Recorder.Record(cmd, in, s.Dispatcher.Dispatch(ctx, in))
		return nil, domain.ErrUnrecognized
	}

	task := &Task{Command: cmd, Intent: in, done: make(chan struct{})}
	job := s.Dispatcher.Submit(context.WithoutCancel(ctx), in)
	go func() {
		defer close(task.done)
		<-job.Done()
		result, _ := job.Result()
		if result.Pending() {
			s.hold(result.ConfirmationID, cmd)
		}
		rec := s.Recorder.Record(cmd, in, result)
		task.resp = Response{Record: rec, Reply: result.Message}
		if in.IsUnknown() {
			task.resp.Clarification = true
			task.resp.Reply = Clarify(cmd.Text)
		}
		s.Logger.Info("background command finished", map[string]interface{}{
			"action":  string(in.Action),
			"success": result.Success,
		})
	}()
	return task, nil
}

func (s *Service) say(ctx context.Context, text string) {
	if s.Speaker == nil || text == "" {
		return
	}
	if err := s.Speaker.Say(ctx, text); err != nil {
		s.Logger.Warn("speech output failed", map[string]interface{}{"error": err.Error()})
	}
}
