package assistant

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/doeshing/smartos-go/internal/application/dispatch"
	"github.com/doeshing/smartos-go/internal/application/intent"
	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
	"github.com/doeshing/smartos-go/internal/ports"
)

type stubHandler struct {
	calls int
}

func (h *stubHandler) SupportedActions() []domain.Action { return domain.BuiltinActions }

func (h *stubHandler) Execute(_ context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	h.calls++
	return ports.HandlerOutcome{Success: true, Message: "done " + in.Target}, nil
}

type stubPrompter struct {
	enabled bool
	answer  bool
	err     error
	asked   []domain.Intent
	reasons []string
}

func (p *stubPrompter) Enabled() bool { return p.enabled }

func (p *stubPrompter) Confirm(in domain.Intent, reasons []string) (bool, error) {
	p.asked = append(p.asked, in)
	p.reasons = reasons
	return p.answer, p.err
}

type stubSpeaker struct {
	said []string
}

func (s *stubSpeaker) Say(_ context.Context, text string) error {
	s.said = append(s.said, text)
	return nil
}

type confirmShutdown struct{}

func (confirmShutdown) Evaluate(in domain.Intent) domain.PolicyDecision {
	if in.Target == "shutdown" {
		return domain.PolicyDecision{Verdict: domain.VerdictConfirm, Reasons: []string{"power action requires confirmation"}}
	}
	return domain.Allowed()
}

func newService(t *testing.T, prompter ports.ConfirmationPrompter) (*Service, *stubHandler, *recorder.Recorder) {
	t.Helper()
	reg, err := intent.BuildRegistry(domain.Config{})
	if err != nil {
		t.Fatal(err)
	}
	h := &stubHandler{}
	d := dispatch.New(dispatch.Options{Timeout: time.Second}, dispatch.Dependencies{Policy: confirmShutdown{}})
	if err := d.Register(h); err != nil {
		t.Fatal(err)
	}
	rec := recorder.New(nil)
	return &Service{
		Matcher:      intent.NewMatcher(reg),
		Dispatcher:   d,
		Recorder:     rec,
		Prompter:     prompter,
		Logger:       logger.NewNop(),
		FallbackMode: true,
	}, h, rec
}

func TestHandleRecognizedCommand(t *testing.T) {
	speaker := &stubSpeaker{}
	svc, h, rec := newService(t, nil)
	svc.Speaker = speaker

	resp, err := svc.Handle(context.Background(), "open calculator")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !resp.Record.Result.Success || resp.Record.Intent.Target != "calculator" {
		t.Fatalf("unexpected record %+v", resp.Record)
	}
	if h.calls != 1 || rec.Len() != 1 {
		t.Errorf("calls=%d records=%d", h.calls, rec.Len())
	}
	if len(speaker.said) != 1 || speaker.said[0] != "done calculator" {
		t.Errorf("speaker got %v", speaker.said)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	svc, h, rec := newService(t, nil)

	resp, err := svc.Handle(context.Background(), "asdkjasd")
	if err != nil {
		t.Fatalf("fallback mode should not error: %v", err)
	}
	if !resp.Clarification || resp.Reply != "I'm not sure how to handle: 'asdkjasd'. Could you rephrase?" {
		t.Errorf("unexpected reply %+v", resp)
	}
	if resp.Record.Result.Error != "UnsupportedAction" {
		t.Errorf("error = %q", resp.Record.Result.Error)
	}

	svc.FallbackMode = false
	if _, err := svc.Handle(context.Background(), "asdkjasd"); !errors.Is(err, domain.ErrUnrecognized) {
		t.Errorf("expected ErrUnrecognized, got %v", err)
	}
	if h.calls != 0 || rec.Len() != 2 {
		t.Errorf("calls=%d records=%d", h.calls, rec.Len())
	}

	if _, err := svc.Handle(context.Background(), "   "); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestHandleConfirmsThroughPrompter(t *testing.T) {
	tests := []struct {
		name      string
		prompter  *stubPrompter
		wantCalls int
		wantError string
	}{
		{"approved", &stubPrompter{enabled: true, answer: true}, 1, ""},
		{"declined", &stubPrompter{enabled: true, answer: false}, 0, "UserDeclined"},
		{"prompt error", &stubPrompter{enabled: true, answer: true, err: errors.New("aborted")}, 0, "UserDeclined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, h, _ := newService(t, tt.prompter)
			resp, err := svc.Handle(context.Background(), "shutdown in 5 minutes")
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if h.calls != tt.wantCalls {
				t.Errorf("handler calls = %d, want %d", h.calls, tt.wantCalls)
			}
			if resp.Record.Result.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Record.Result.Error, tt.wantError)
			}
			if len(tt.prompter.asked) != 1 || len(tt.prompter.reasons) != 1 {
				t.Errorf("prompter asked %d times with %v", len(tt.prompter.asked), tt.prompter.reasons)
			}
		})
	}
}

func TestPendingConfirmationResolvedLater(t *testing.T) {
	svc, h, rec := newService(t, &stubPrompter{enabled: false})
	ctx := context.Background()

	resp, err := svc.Handle(ctx, "shutdown")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Record.Result.Pending() {
		t.Fatalf("expected pending result, got %+v", resp.Record.Result)
	}

	resolved, err := svc.Resolve(ctx, resp.Record.Result.ConfirmationID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Record.Result.Success || h.calls != 1 {
		t.Errorf("resolve failed: %+v", resolved.Record.Result)
	}
	if resolved.Record.Command.Text != "shutdown" {
		t.Errorf("resolved record should reuse original command, got %q", resolved.Record.Command.Text)
	}
	if rec.Len() != 2 {
		t.Errorf("records = %d, want 2", rec.Len())
	}

	if _, err := svc.Resolve(ctx, "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiredConfirmationsAreForgotten(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, h, _ := newService(t, nil)
	d := dispatch.New(dispatch.Options{ConfirmationTTL: time.Minute, Clock: clock}, dispatch.Dependencies{Policy: confirmShutdown{}})
	if err := d.Register(h); err != nil {
		t.Fatal(err)
	}
	svc.Dispatcher = d
	ctx := context.Background()

	stale, err := svc.Handle(ctx, "shutdown")
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	fresh, err := svc.Handle(ctx, "shutdown")
	if err != nil {
		t.Fatal(err)
	}

	held := 0
	svc.pending.Range(func(any, any) bool { held++; return true })
	if held != 1 {
		t.Errorf("held commands = %d, want 1", held)
	}
	if _, err := svc.Resolve(ctx, stale.Record.Result.ConfirmationID, true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired confirmation, got %v", err)
	}
	if h.calls != 0 {
		t.Errorf("expired confirmation must not run, calls = %d", h.calls)
	}
	if _, err := svc.Resolve(ctx, fresh.Record.Result.ConfirmationID, true); err != nil {
		t.Errorf("fresh confirmation: %v", err)
	}
}

func TestSubmitRecordsInBackground(t *testing.T) {
	svc, _, rec := newService(t, nil)
	ctx := context.Background()

	task, err := svc.Submit(ctx, "create file notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := task.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Record.Result.Success || task.Intent.Action != domain.ActionFileOperation {
		t.Errorf("unexpected response %+v", resp)
	}
	if got := slices.Collect(rec.Query(recorder.Filter{})); len(got) != 1 {
		t.Errorf("records = %d, want 1", len(got))
	}

	svc.FallbackMode = false
	if _, err := svc.Submit(ctx, "zzz"); !errors.Is(err, domain.ErrUnrecognized) {
		t.Errorf("expected ErrUnrecognized, got %v", err)
	}
}

func TestServiceRequiresDependencies(t *testing.T) {
	if _, err := (&Service{}).Handle(context.Background(), "open notepad"); err == nil {
		t.Error("expected dependency error")
	}
}
