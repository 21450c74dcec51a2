package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/smartos-go/internal/domain"
)

func record(seq uint64, text string, action domain.Action, at time.Time, ok bool) domain.ExecutionRecord {
	result := domain.Succeeded("done", 120*time.Millisecond)
	if !ok {
		result = domain.Failed("boom", domain.CodeHandlerFailure, "exit 1", 2*time.Second)
	}
	return domain.ExecutionRecord{
		ID:      "id-" + text,
		Seq:     seq,
		Command: domain.NewCommand(text, at),
		Intent:  domain.Intent{Action: action, Target: "notepad", Confidence: 0.8},
		Result:  result,
	}
}

func TestFileStoreAppendAndRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewFileStore(fs, "/logs").WithClock(func() time.Time { return day })

	require.NoError(t, store.Append(record(1, "open notepad", domain.ActionOpenApplication, day, true)))
	require.NoError(t, store.Append(record(2, "shutdown", domain.ActionSystemControl, day.Add(time.Second), false)))

	exists, err := afero.Exists(fs, "/logs/execution_20240501.jsonl")
	require.NoError(t, err)
	assert.True(t, exists)

	records, err := store.Records(0, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "shutdown", records[0].Command.Text, "newest first")
	assert.Equal(t, 2*time.Second, records[0].Result.ExecutionTime)
	assert.Equal(t, domain.CodeHandlerFailure, domain.ErrorCodeOf(records[0].Result))

	limited, err := store.Records(1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	found, err := store.Records(0, "NOTEPAD")
	require.NoError(t, err)
	assert.Len(t, found, 2, "target matches too")

	found, err = store.Records(0, "system_control")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, uint64(2), found[0].Seq)
}

func TestFileStoreRotateAndClear(t *testing.T) {
	fs := afero.NewMemMapFs()
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewFileStore(fs, "/logs").WithClock(func() time.Time { return day })

	require.NoError(t, store.Append(record(1, "a", domain.ActionOpenApplication, day, true)))
	require.NoError(t, store.Rotate())
	require.NoError(t, store.Append(record(2, "b", domain.ActionOpenApplication, day, true)))

	exists, _ := afero.Exists(fs, "/logs/execution_20240501_1.jsonl")
	assert.True(t, exists)

	records, err := store.Records(0, "")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.NoError(t, store.ExportJSON("/export/all.jsonl"))
	data, err := afero.ReadFile(fs, "/export/all.jsonl")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command":"a"`)

	require.NoError(t, store.Clear())
	records, err = store.Records(0, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStoreSkipsMalformedLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/logs/execution_20240501.jsonl", []byte("not json\n\n"), 0o644))
	store := NewFileStore(fs, "/logs")
	records, err := store.Records(0, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "executions.db")
	store := NewSQLiteStore(path)
	t.Cleanup(func() { _ = store.Close() })
	require.False(t, store.Degraded())
	assert.Equal(t, path, store.Path())

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(record(1, "open notepad", domain.ActionOpenApplication, base, true)))
	require.NoError(t, store.Rotate())
	require.NoError(t, store.Append(record(2, "write an essay", domain.ActionContentCreation, base.Add(time.Minute), false)))

	records, err := store.Records(0, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "write an essay", records[0].Command.Text)
	assert.True(t, records[0].Command.Timestamp.Equal(base.Add(time.Minute)))
	assert.False(t, records[0].Result.Success)

	found, err := store.Records(10, "notepad")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.Records(1, "essay")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.ActionContentCreation, found[0].Intent.Action)

	dest := filepath.Join(t.TempDir(), "export.jsonl")
	require.NoError(t, store.ExportJSON(dest))

	require.NoError(t, store.Clear())
	records, err = store.Records(0, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStoreReopenKeepsSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "executions.db")
	store := NewSQLiteStore(path)
	require.NoError(t, store.Rotate())
	require.NoError(t, store.Rotate())
	require.NoError(t, store.Append(record(1, "a", domain.ActionOpenApplication, time.Now(), true)))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, 2, reopened.segment)
}
