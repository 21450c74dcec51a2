package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/filesystem"
	"github.com/doeshing/smartos-go/internal/ports"
)

// SQLiteStore persists execution records in a SQLite database.
// When the database cannot be opened it degrades to a FileStore next to it.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore

	mu      sync.Mutex
	segment int
}

// NewSQLiteStore creates (or opens) the database, defaulting to
// ~/.smartos/history/executions.db.
func NewSQLiteStore(path string) *SQLiteStore {
	path = filesystem.ExpandHome(path)
	if path == "" {
		path = filesystem.StateDir("history", "executions.db")
	}
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	fallback := &SQLiteStore{path: path, fallback: NewFileStore(afero.NewOsFs(), filepath.Dir(path))}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fallback
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return fallback
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		row_id INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		seq INTEGER,
		segment INTEGER NOT NULL DEFAULT 0,
		timestamp TEXT,
		command TEXT,
		action TEXT,
		target TEXT,
		confidence REAL,
		success INTEGER,
		error TEXT,
		execution_time_ms INTEGER,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS executions_action ON executions(action);`)
	if err != nil {
		return err
	}
	return s.db.QueryRow(`SELECT COALESCE(MAX(segment), 0) FROM executions`).Scan(&s.segment)
}

// Degraded reports whether the store fell back to JSONL files.
func (s *SQLiteStore) Degraded() bool {
	return s.db == nil
}

// Append implements ports.ExecutionSink.
func (s *SQLiteStore) Append(record domain.ExecutionRecord) error {
	if s.db == nil {
		return s.fallback.Append(record)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO executions
		(id, seq, segment, timestamp, command, action, target, confidence, success, error, execution_time_ms, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Seq,
		s.segment,
		record.Command.Timestamp.UTC().Format(domain.TimestampFormat),
		record.Command.Text,
		string(record.Intent.Action),
		record.Intent.Target,
		record.Intent.Confidence,
		boolToInt(record.Result.Success),
		record.Result.Error,
		record.Result.ExecutionTime.Milliseconds(),
		string(payload),
	)
	return err
}

// Rotate implements ports.Rotator by starting a new segment number.
func (s *SQLiteStore) Rotate() error {
	if s.db == nil {
		return s.fallback.Rotate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segment++
	return nil
}

// Records returns execution records, newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.ExecutionRecord, error) {
	if s.db == nil {
		return s.fallback.Records(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT payload FROM executions")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE command LIKE ? OR action LIKE ? OR target LIKE ?")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	builder.WriteString(" ORDER BY timestamp DESC, row_id DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.ExecutionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec domain.ExecutionRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all execution records.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback.Clear()
	}
	_, err := s.db.Exec("DELETE FROM executions")
	return err
}

// ExportJSON writes the execution table to a JSONL file, oldest first.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(afero.NewOsFs(), dest, records)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var (
	_ ports.HistoryRepository = (*SQLiteStore)(nil)
	_ ports.Rotator           = (*SQLiteStore)(nil)
)
