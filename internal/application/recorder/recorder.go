// Package recorder keeps the append-only log of executed commands.
package recorder

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Filter selects records. Zero values match everything.
type Filter struct {
	Since   time.Time
	Until   time.Time
	Action  domain.Action
	Success *bool
}

// Match reports whether rec passes the filter. Since is inclusive, Until exclusive.
func (f Filter) Match(rec domain.ExecutionRecord) bool {
	ts := rec.Command.Timestamp
	if !f.Since.IsZero() && ts.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !ts.Before(f.Until) {
		return false
	}
	if f.Action != "" && rec.Intent.Action != f.Action {
		return false
	}
	if f.Success != nil && rec.Result.Success != *f.Success {
		return false
	}
	return true
}

// Recorder appends records atomically and fans them out to sinks.
// Readers iterate over immutable snapshots and never block writers.
type Recorder struct {
	logger ports.Logger
	sinks  []ports.ExecutionSink

	mu       sync.Mutex
	seq      uint64
	current  []domain.ExecutionRecord
	archived [][]domain.ExecutionRecord
}

// New creates a recorder. Sink failures are logged and never surface to callers.
func New(log ports.Logger, sinks ...ports.ExecutionSink) *Recorder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{logger: log, sinks: sinks}
}

// Record appends one execution and returns the stored record.
func (r *Recorder) Record(cmd domain.Command, in domain.Intent, result domain.ExecutionResult) domain.ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	rec := domain.ExecutionRecord{
		ID:      uuid.NewString(),
		Seq:     r.seq,
		Command: cmd,
		Intent:  in,
		Result:  result,
	}
	r.current = append(r.current, rec)

	for _, sink := range r.sinks {
		if err := sink.Append(rec); err != nil {
			r.logger.Error("execution sink append failed", err, map[string]interface{}{
				"record_id": rec.ID,
				"sink":      sinkName(sink),
			})
		}
	}
	return rec
}

// Len returns the number of records across all segments.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.current)
	for _, seg := range r.archived {
		n += len(seg)
	}
	return n
}

// Query lazily yields records from every segment in append order.
func (r *Recorder) Query(f Filter) iter.Seq[domain.ExecutionRecord] {
	archived, current := r.snapshot()
	return func(yield func(domain.ExecutionRecord) bool) {
		for _, seg := range archived {
			for _, rec := range seg {
				if f.Match(rec) && !yield(rec) {
					return
				}
			}
		}
		for _, rec := range current {
			if f.Match(rec) && !yield(rec) {
				return
			}
		}
	}
}

// Current yields the records of the open segment only.
func (r *Recorder) Current() iter.Seq[domain.ExecutionRecord] {
	_, current := r.snapshot()
	return func(yield func(domain.ExecutionRecord) bool) {
		for _, rec := range current {
			if !yield(rec) {
				return
			}
		}
	}
}

// Archived yields the records of sealed segments, oldest first.
func (r *Recorder) Archived() iter.Seq[domain.ExecutionRecord] {
	archived, _ := r.snapshot()
	return func(yield func(domain.ExecutionRecord) bool) {
		for _, seg := range archived {
			for _, rec := range seg {
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// Rotate seals the open segment and starts a new one. It returns how many
// records were sealed. Sinks that implement ports.Rotator rotate as well.
func (r *Recorder) Rotate() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	sealed := len(r.current)
	if sealed > 0 {
		r.archived = append(r.archived, r.current[:sealed:sealed])
		r.current = nil
	}
	for _, sink := range r.sinks {
		rot, ok := sink.(ports.Rotator)
		if !ok {
			continue
		}
		if err := rot.Rotate(); err != nil {
			r.logger.Error("execution sink rotate failed", err, map[string]interface{}{"sink": sinkName(sink)})
		}
	}
	r.logger.Info("execution log rotated", map[string]interface{}{"sealed": sealed, "segments": len(r.archived)})
	return sealed
}

// snapshot captures slice headers; records are never mutated after append.
func (r *Recorder) snapshot() ([][]domain.ExecutionRecord, []domain.ExecutionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	archived := r.archived[:len(r.archived):len(r.archived)]
	current := r.current[:len(r.current):len(r.current)]
	return archived, current
}

func sinkName(sink ports.ExecutionSink) string {
	if p, ok := sink.(interface{ Path() string }); ok {
		return p.Path()
	}
	return "sink"
}
