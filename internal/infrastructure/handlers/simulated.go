package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// SimulatedHandler accepts every intent for its actions without side effects.
// End-to-end evaluation and --dry-run register it in place of the real handlers.
type SimulatedHandler struct {
	Actions []domain.Action
	Delay   time.Duration
}

// Execute implements ports.ActionHandler.
func (h *SimulatedHandler) Execute(ctx context.Context, in domain.Intent) (ports.HandlerOutcome, error) {
	if h.Delay > 0 {
		timer := time.NewTimer(h.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ports.HandlerOutcome{}, ctx.Err()
		}
	}
	return ok(strings.TrimSpace(fmt.Sprintf("Simulated %s %s", in.Action, in.Target))), nil
}

// SupportedActions implements ports.ActionHandler.
func (h *SimulatedHandler) SupportedActions() []domain.Action {
	if len(h.Actions) == 0 {
		return append([]domain.Action(nil), domain.BuiltinActions...)
	}
	return h.Actions
}

var _ ports.ActionHandler = (*SimulatedHandler)(nil)
