package recorder

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/smartos-go/internal/domain"
)

type memorySink struct {
	mu      sync.Mutex
	records []domain.ExecutionRecord
	rotated int
	err     error
}

func (s *memorySink) Append(rec domain.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) Rotate() error {
	s.rotated++
	return nil
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func record(r *Recorder, offset time.Duration, action domain.Action, ok bool, elapsed time.Duration, confidence float64) domain.ExecutionRecord {
	cmd := domain.NewCommand("cmd", base.Add(offset))
	res := domain.Succeeded("ok", elapsed)
	if !ok {
		res = domain.Failed("failed", domain.CodeHandlerFailure, "boom", elapsed)
	}
	return r.Record(cmd, domain.Intent{Action: action, Confidence: confidence}, res)
}

func TestRecordAssignsIdentityAndForwards(t *testing.T) {
	sink := &memorySink{}
	r := New(nil, sink)

	first := record(r, 0, domain.ActionOpenApplication, true, time.Millisecond, 1)
	second := record(r, time.Second, domain.ActionFileOperation, false, time.Millisecond, 0.7)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.EqualValues(t, 1, first.Seq)
	assert.EqualValues(t, 2, second.Seq)
	assert.Equal(t, []domain.ExecutionRecord{first, second}, sink.records)
	assert.Equal(t, 2, r.Len())
}

func TestSinkErrorsAreSwallowed(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	r := New(nil, sink)
	rec := record(r, 0, domain.ActionOpenApplication, true, 0, 1)
	assert.EqualValues(t, 1, rec.Seq)
	assert.Equal(t, 1, r.Len())
}

func TestQueryFilters(t *testing.T) {
	r := New(nil)
	record(r, 0, domain.ActionOpenApplication, true, 0, 1)
	record(r, time.Minute, domain.ActionFileOperation, false, 0, 1)
	record(r, 2*time.Minute, domain.ActionOpenApplication, false, 0, 1)
	record(r, 3*time.Minute, domain.ActionSystemControl, true, 0, 1)

	seqs := func(f Filter) []uint64 {
		var out []uint64
		for rec := range r.Query(f) {
			out = append(out, rec.Seq)
		}
		return out
	}
	failed := false
	assert.Equal(t, []uint64{1, 2, 3, 4}, seqs(Filter{}))
	assert.Equal(t, []uint64{1, 3}, seqs(Filter{Action: domain.ActionOpenApplication}))
	assert.Equal(t, []uint64{2, 3}, seqs(Filter{Success: &failed}))
	assert.Equal(t, []uint64{2, 3}, seqs(Filter{Since: base.Add(time.Minute), Until: base.Add(3 * time.Minute)}))

	// early termination
	var firstOnly []uint64
	for rec := range r.Query(Filter{}) {
		firstOnly = append(firstOnly, rec.Seq)
		break
	}
	assert.Equal(t, []uint64{1}, firstOnly)
}

func TestQueryIsASnapshot(t *testing.T) {
	r := New(nil)
	record(r, 0, domain.ActionOpenApplication, true, 0, 1)
	seq := r.Query(Filter{})
	record(r, time.Second, domain.ActionOpenApplication, true, 0, 1)

	assert.Len(t, slices.Collect(seq), 1)
	assert.Len(t, slices.Collect(r.Query(Filter{})), 2)
}

func TestRotateSealsSegment(t *testing.T) {
	sink := &memorySink{}
	r := New(nil, sink)
	record(r, 0, domain.ActionOpenApplication, true, 0, 1)
	record(r, time.Second, domain.ActionOpenApplication, true, 0, 1)

	assert.Equal(t, 2, r.Rotate())
	assert.Equal(t, 1, sink.rotated)
	assert.Empty(t, slices.Collect(r.Current()))

	third := record(r, 2*time.Second, domain.ActionFileOperation, true, 0, 1)
	assert.EqualValues(t, 3, third.Seq)
	assert.Len(t, slices.Collect(r.Archived()), 2)
	assert.Len(t, slices.Collect(r.Current()), 1)
	assert.Len(t, slices.Collect(r.Query(Filter{})), 3)
	assert.Equal(t, 0, New(nil).Rotate())
}

func TestConcurrentAppendersProduceTotalOrder(t *testing.T) {
	r := New(nil, &memorySink{})
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				record(r, 0, domain.ActionOpenApplication, true, 0, 1)
				for range r.Query(Filter{}) {
				}
			}
		}()
	}
	wg.Wait()

	all := slices.Collect(r.Query(Filter{}))
	require.Len(t, all, writers*perWriter)
	ids := make(map[string]bool, len(all))
	for i, rec := range all {
		assert.EqualValues(t, i+1, rec.Seq)
		ids[rec.ID] = true
	}
	assert.Len(t, ids, writers*perWriter)
}

func TestSummarize(t *testing.T) {
	r := New(nil)
	record(r, 0, domain.ActionOpenApplication, true, 500*time.Millisecond, 1)
	record(r, 0, domain.ActionOpenApplication, false, 2*time.Second, 0.9)
	record(r, 0, domain.ActionFileOperation, true, 4*time.Second, 0.7)
	record(r, 0, domain.ActionSystemControl, true, 6*time.Second, 0.8)

	m := Summarize(r.Query(Filter{}), base)
	assert.Equal(t, 4, m.TotalCommands)
	assert.Equal(t, 3, m.Succeeded)
	assert.Equal(t, 1, m.Failed)
	assert.InDelta(t, 0.75, m.SuccessRate, 1e-9)
	assert.InDelta(t, 3.125, m.AverageResponseTime, 1e-9)
	assert.InDelta(t, 0.5, m.IntentAccuracy, 1e-9)
	assert.Equal(t, map[string]int{BucketUnder1s: 1, BucketUnder3s: 2, BucketUnder5s: 3, BucketOver5s: 1}, m.ResponseTimes)
	assert.Equal(t, 1, m.Errors[domain.CodeHandlerFailure])

	open := m.PerAction[domain.ActionOpenApplication]
	assert.Equal(t, 2, open.Total)
	assert.InDelta(t, 0.5, open.SuccessRate, 1e-9)
	assert.InDelta(t, 1.25, open.AverageResponseTime, 1e-9)

	empty := Summarize(New(nil).Query(Filter{}), base)
	assert.Zero(t, empty.TotalCommands)
	assert.Zero(t, empty.SuccessRate)
}

func TestSummarizeTimeWindows(t *testing.T) {
	r := New(nil)
	record(r, -3*24*time.Hour, domain.ActionOpenApplication, true, time.Millisecond, 1)
	record(r, -5*time.Hour, domain.ActionOpenApplication, false, time.Millisecond, 1)
	record(r, -2*time.Hour, domain.ActionOpenApplication, true, time.Millisecond, 1)
	record(r, -30*time.Minute, domain.ActionOpenApplication, true, time.Millisecond, 1)
	record(r, -time.Minute, domain.ActionOpenApplication, false, time.Millisecond, 1)
	record(r, time.Hour, domain.ActionOpenApplication, true, time.Millisecond, 1)

	m := Summarize(r.Query(Filter{}), base)
	assert.Equal(t, 6, m.TotalCommands)
	assert.Equal(t, WindowStats{Total: 2, Succeeded: 1, SuccessRate: 0.5}, m.LastHour)
	assert.Equal(t, 4, m.LastDay.Total)
	assert.Equal(t, 2, m.LastDay.Succeeded)
	assert.InDelta(t, 0.5, m.LastDay.SuccessRate, 1e-9)

	later := Summarize(r.Query(Filter{}), base.Add(24*time.Hour))
	assert.Zero(t, later.LastHour.Total)
	assert.Equal(t, 1, later.LastDay.Total)
}
