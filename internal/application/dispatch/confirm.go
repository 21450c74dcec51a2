package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/smartos-go/internal/domain"
)

// Pending is an intent held until a user approves or declines it.
type Pending struct {
	ID        string        `json:"id"`
	Intent    domain.Intent `json:"intent"`
	Reasons   []string      `json:"reasons,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (d *Dispatcher) hold(in domain.Intent, decision domain.PolicyDecision, start time.Time) domain.ExecutionResult {
	p := Pending{
		ID:        uuid.NewString(),
		Intent:    in,
		Reasons:   decision.Reasons,
		CreatedAt: d.opts.Clock().UTC(),
	}
	d.pendingMu.Lock()
	d.expireLocked()
	d.pending[p.ID] = p
	d.pendingMu.Unlock()

	d.logger.Info("intent awaiting confirmation", map[string]interface{}{
		"action":          string(in.Action),
		"target":          in.Target,
		"confirmation_id": p.ID,
	})
	result := domain.Failed("Confirmation required: "+joinReasons(decision), domain.CodePendingConfirmation, "", time.Since(start))
	result.ConfirmationID = p.ID
	return result
}

// Resolve settles a pending confirmation. Approval executes the held intent;
// a decline yields UserDeclined. Each id can be resolved once.
func (d *Dispatcher) Resolve(ctx context.Context, id string, approved bool) domain.ExecutionResult {
	d.pendingMu.Lock()
	d.expireLocked()
	p, ok := d.pending[id]
	delete(d.pending, id)
	d.pendingMu.Unlock()

	if !ok {
		return domain.Failed("No pending confirmation "+id, domain.CodeUnknownConfirmation, id, 0)
	}
	if !approved {
		d.logger.Info("confirmation declined", map[string]interface{}{"confirmation_id": id, "action": string(p.Intent.Action)})
		return domain.Failed("Action declined by user", domain.CodeUserDeclined, "", 0)
	}

	h, ok := d.lookup(p.Intent.Action)
	if !ok {
		return domain.Failed("No handler for action", domain.CodeUnsupportedAction, "", 0)
	}
	return d.execute(ctx, h, p.Intent, time.Now())
}

// Lookup returns an outstanding confirmation.
func (d *Dispatcher) Lookup(id string) (Pending, bool) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.expireLocked()
	p, ok := d.pending[id]
	return p, ok
}

// PendingConfirmations lists outstanding confirmations, oldest first.
func (d *Dispatcher) PendingConfirmations() []Pending {
	d.pendingMu.Lock()
	d.expireLocked()
	out := make([]Pending, 0, len(d.pending))
	for _, p := range d.pending {
		out = append(out, p)
	}
	d.pendingMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// expireLocked drops confirmations older than the TTL. pendingMu must be held.
func (d *Dispatcher) expireLocked() {
	if d.opts.ConfirmationTTL <= 0 {
		return
	}
	now := d.opts.Clock()
	for id, p := range d.pending {
		if now.Sub(p.CreatedAt) > d.opts.ConfirmationTTL {
			delete(d.pending, id)
			d.logger.Info("confirmation expired", map[string]interface{}{
				"confirmation_id": id,
				"action":          string(p.Intent.Action),
			})
		}
	}
}
