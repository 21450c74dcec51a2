package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/filesystem"
	"github.com/doeshing/smartos-go/internal/ports"
)

const filePrefix = "execution_"

// FileStore appends execution records to daily JSONL files
// (execution_YYYYMMDD.jsonl) under one directory.
type FileStore struct {
	fs  afero.Fs
	dir string
	now func() time.Time

	mu      sync.Mutex
	day     string
	segment int
}

// NewFileStore creates a store rooted at dir, defaulting to ~/.smartos/logs.
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = filesystem.StateDir("logs")
	}
	return &FileStore{fs: fs, dir: dir, now: time.Now}
}

// WithClock overrides the clock used to name daily files.
func (f *FileStore) WithClock(now func() time.Time) *FileStore {
	f.now = now
	return f
}

// Append implements ports.ExecutionSink.
func (f *FileStore) Append(record domain.ExecutionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fs.MkdirAll(f.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := f.fs.OpenFile(f.currentPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Rotate implements ports.Rotator: later appends go to a new segment file.
func (f *FileStore) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentPath()
	f.segment++
	return nil
}

func (f *FileStore) currentPath() string {
	day := f.now().UTC().Format(domain.DayStampFormat)
	if day != f.day {
		f.day, f.segment = day, 0
	}
	name := filePrefix + day
	if f.segment > 0 {
		name += fmt.Sprintf("_%d", f.segment)
	}
	return filepath.Join(f.dir, name+".jsonl")
}

// Path returns the log directory.
func (f *FileStore) Path() string {
	return f.dir
}

// Clear removes every execution log file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	files, err := f.files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := f.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Records loads records newest first (best-effort: malformed lines are skipped).
// search matches the command text, action or target case-insensitively.
func (f *FileStore) Records(limit int, search string) ([]domain.ExecutionRecord, error) {
	f.mu.Lock()
	files, err := f.files()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var records []domain.ExecutionRecord
	for _, path := range files {
		data, err := afero.ReadFile(f.fs, path)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var rec domain.ExecutionRecord
			if err := json.Unmarshal(line, &rec); err == nil && matchesSearch(rec, search) {
				records = append(records, rec)
			}
		}
	}
	sortNewestFirst(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ExportJSON writes every record, oldest first, as JSONL to dest.
func (f *FileStore) ExportJSON(dest string) error {
	records, err := f.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(f.fs, dest, records)
}

func (f *FileStore) files() ([]string, error) {
	matches, err := afero.Glob(f.fs, filepath.Join(f.dir, filePrefix+"*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func writeJSONL(fs afero.Fs, dest string, newestFirst []domain.ExecutionRecord) error {
	if dir := filepath.Dir(dest); dir != "" {
		if err := fs.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
			return err
		}
	}
	file, err := fs.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	for i := len(newestFirst) - 1; i >= 0; i-- {
		b, err := json.Marshal(newestFirst[i])
		if err != nil {
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}

func matchesSearch(rec domain.ExecutionRecord, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(rec.Command.Text), needle) ||
		strings.Contains(string(rec.Intent.Action), needle) ||
		strings.Contains(strings.ToLower(rec.Intent.Target), needle)
}

func sortNewestFirst(records []domain.ExecutionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].Command.Timestamp, records[j].Command.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].Seq > records[j].Seq
	})
}

var (
	_ ports.HistoryRepository = (*FileStore)(nil)
	_ ports.Rotator           = (*FileStore)(nil)
)
