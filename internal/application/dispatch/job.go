package dispatch

import (
	"context"

	"github.com/doeshing/smartos-go/internal/domain"
)

// Job is a handle to a dispatch running in the background.
type Job struct {
	intent domain.Intent
	done   chan struct{}
	result domain.ExecutionResult
}

// Submit dispatches in on a new goroutine and returns immediately.
func (d *Dispatcher) Submit(ctx context.Context, in domain.Intent) *Job {
	j := &Job{intent: in, done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.result = d.Dispatch(ctx, in)
	}()
	return j
}

// Intent returns the submitted intent.
func (j *Job) Intent() domain.Intent { return j.intent }

// Done is closed once the result is available.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx ends.
func (j *Job) Wait(ctx context.Context) (domain.ExecutionResult, error) {
	select {
	case <-j.done:
		return j.result, nil
	case <-ctx.Done():
		return domain.ExecutionResult{}, ctx.Err()
	}
}

// Result returns the outcome without blocking.
func (j *Job) Result() (domain.ExecutionResult, bool) {
	select {
	case <-j.done:
		return j.result, true
	default:
		return domain.ExecutionResult{}, false
	}
}
