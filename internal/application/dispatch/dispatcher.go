// Package dispatch routes intents to the registered action handlers.
//
// The Dispatcher consults the security policy, runs the handler under the
// configured response timeout and always answers with a uniform
// domain.ExecutionResult. Handler panics, errors and timeouts never escape
// as Go errors or panics.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
	"github.com/doeshing/smartos-go/internal/ports"
)

const screenshotTimeout = 2 * time.Second

// Options tunes dispatch behavior.
type Options struct {
	// Timeout bounds a single handler call. Zero disables the bound.
	Timeout time.Duration
	// ScreenshotOnError captures the screen when an execution fails.
	ScreenshotOnError bool
	// ConfirmationTTL drops held intents nobody settled in time. Zero keeps
	// them until resolved.
	ConfirmationTTL time.Duration
	// Clock stamps held intents; defaults to time.Now.
	Clock func() time.Time
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg domain.Config) Options {
	return Options{
		Timeout:           cfg.GetResponseTimeout(),
		ScreenshotOnError: cfg.ShouldCaptureScreenshots(),
		ConfirmationTTL:   domain.DefaultConfirmationTTL,
	}
}

// Dependencies are the optional collaborators of a Dispatcher.
type Dependencies struct {
	Policy      ports.PolicyService
	Screenshots ports.ScreenshotCapturer
	Logger      ports.Logger
}

// Dispatcher maps actions to handlers. It is safe for concurrent use.
type Dispatcher struct {
	opts        Options
	policy      ports.PolicyService
	screenshots ports.ScreenshotCapturer
	logger      ports.Logger

	mu       sync.RWMutex
	handlers map[domain.Action]ports.ActionHandler

	pendingMu sync.Mutex
	pending   map[string]Pending
}

// New creates a dispatcher with no handlers.
func New(opts Options, deps Dependencies) *Dispatcher {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Dispatcher{
		opts:        opts,
		policy:      deps.Policy,
		screenshots: deps.Screenshots,
		logger:      log,
		handlers:    make(map[domain.Action]ports.ActionHandler),
		pending:     make(map[string]Pending),
	}
}

// Register binds every action h supports. Nothing is registered when any
// action is already taken.
func (d *Dispatcher) Register(h ports.ActionHandler) error {
	actions := h.SupportedActions()
	if len(actions) == 0 {
		return fmt.Errorf("handler %T supports no actions", h)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[domain.Action]bool, len(actions))
	for _, action := range actions {
		if err := action.Validate(); err != nil {
			return fmt.Errorf("handler %T: %w", h, err)
		}
		if owner, exists := d.handlers[action]; exists {
			return &domain.DuplicateActionError{Action: action, Owner: fmt.Sprintf("%T", owner)}
		}
		if seen[action] {
			return &domain.DuplicateActionError{Action: action, Owner: fmt.Sprintf("%T", h)}
		}
		seen[action] = true
	}
	for _, action := range actions {
		d.handlers[action] = h
	}
	return nil
}

// Actions lists the registered actions in sorted order.
func (d *Dispatcher) Actions() []domain.Action {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Action, 0, len(d.handlers))
	for action := range d.handlers {
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Handles reports whether an action has a handler.
func (d *Dispatcher) Handles(action domain.Action) bool {
	_, ok := d.lookup(action)
	return ok
}

func (d *Dispatcher) lookup(action domain.Action) (ports.ActionHandler, bool) {
	if action == domain.ActionUnknown || action == "" {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[action]
	return h, ok
}

// Dispatch executes in and reports the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, in domain.Intent) domain.ExecutionResult {
	start := time.Now()
	h, ok := d.lookup(in.Action)
	if !ok {
		d.logger.Debug("no handler for action", map[string]interface{}{"action": string(in.Action)})
		return domain.Failed("No handler for action", domain.CodeUnsupportedAction, "", time.Since(start))
	}

	decision := domain.Allowed()
	if d.policy != nil {
		decision = d.policy.Evaluate(in)
	}
	switch decision.Verdict {
	case domain.VerdictDeny:
		d.logger.Warn("intent blocked by policy", map[string]interface{}{
			"action":  string(in.Action),
			"target":  in.Target,
			"reasons": decision.Reasons,
		})
		return domain.Failed("Blocked by security policy", domain.CodePolicyDenied, joinReasons(decision), time.Since(start))
	case domain.VerdictConfirm:
		return d.hold(in, decision, start)
	}

	return d.execute(ctx, h, in, start)
}

type outcome struct {
	out ports.HandlerOutcome
	err error
}

func (d *Dispatcher) execute(ctx context.Context, h ports.ActionHandler, in domain.Intent, start time.Time) domain.ExecutionResult {
	done := make(chan outcome, 1)
	// a timed-out handler is detached, not cancelled
	hctx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		out, err := h.Execute(hctx, in)
		done <- outcome{out: out, err: err}
	}()

	var timeout <-chan time.Time
	if d.opts.Timeout > 0 {
		timer := time.NewTimer(d.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var result domain.ExecutionResult
	select {
	case res := <-done:
		result = toResult(in, res, time.Since(start))
	case <-timeout:
		result = domain.Failed(
			fmt.Sprintf("Action %s did not finish within %s", in.Action, d.opts.Timeout),
			domain.CodeTimeout, "", time.Since(start))
		d.logger.Warn("handler timed out; detaching", map[string]interface{}{
			"action":  string(in.Action),
			"timeout": d.opts.Timeout.String(),
		})
	case <-ctx.Done():
		result = domain.Failed("Dispatch cancelled", domain.CodeTimeout, ctx.Err().Error(), time.Since(start))
	}

	if !result.Success {
		result = d.attachScreenshot(ctx, result)
	}
	d.logger.Info("dispatched", map[string]interface{}{
		"action":     string(in.Action),
		"target":     in.Target,
		"success":    result.Success,
		"elapsed_ms": result.ExecutionTime.Milliseconds(),
	})
	return result
}

func toResult(in domain.Intent, res outcome, elapsed time.Duration) domain.ExecutionResult {
	switch {
	case res.err != nil:
		return domain.Failed(fmt.Sprintf("Error executing %s", in.Action), domain.CodeHandlerFailure, res.err.Error(), elapsed)
	case !res.out.Success:
		msg := res.out.Message
		if msg == "" {
			msg = "handler reported failure"
		}
		return domain.Failed(msg, domain.CodeHandlerFailure, msg, elapsed)
	default:
		return domain.Succeeded(res.out.Message, elapsed)
	}
}

func (d *Dispatcher) attachScreenshot(ctx context.Context, result domain.ExecutionResult) domain.ExecutionResult {
	if !d.opts.ScreenshotOnError || d.screenshots == nil {
		return result
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()
	ref, err := d.screenshots.Capture(cctx)
	if err != nil {
		d.logger.Warn("screenshot capture failed", map[string]interface{}{"error": err.Error()})
		return result
	}
	result.Screenshot = ref
	return result
}

func joinReasons(decision domain.PolicyDecision) string {
	if len(decision.Reasons) == 0 {
		return "denied"
	}
	return strings.Join(decision.Reasons, "; ")
}
