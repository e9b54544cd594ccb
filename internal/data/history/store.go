package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Record is one resolution request and its outcome.
type Record struct {
	ID         string
	Timestamp  time.Time
	Operation  string
	SourceFile string
	Symbol     string
	Kind       string
	Found      bool
	TargetPath string
	TargetLine int
	TargetCol  int
	Duration   time.Duration
}

// Store keeps a bounded log of resolution requests in sqlite. It exists
// for post-hoc inspection of what the heuristics decided, not as a cache.
type Store struct {
	path       string
	db         *sql.DB
	maxRecords int
	mu         sync.Mutex
}

func Open(path string, maxRecords int) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}
	if maxRecords < 1 {
		maxRecords = 10000
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while the watcher churns.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db, maxRecords: maxRecords}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	found := 0
	if rec.Found {
		found = 1
	}

	err := s.withRetry("save record", func() error {
		_, err := s.db.Exec(`
INSERT INTO resolutions (
  id, ts_utc, operation, source_file, symbol, kind, found,
  target_path, target_line, target_column, duration_us
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID,
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			rec.Operation,
			rec.SourceFile,
			rec.Symbol,
			rec.Kind,
			found,
			rec.TargetPath,
			rec.TargetLine,
			rec.TargetCol,
			rec.Duration.Microseconds(),
		)
		return err
	})
	if err != nil {
		return err
	}
	return s.trimLocked()
}

// trimLocked enforces the record cap, oldest first.
func (s *Store) trimLocked() error {
	return s.withRetry("trim records", func() error {
		_, err := s.db.Exec(`
DELETE FROM resolutions WHERE id IN (
  SELECT id FROM resolutions ORDER BY ts_utc DESC, id DESC LIMIT -1 OFFSET ?
)`, s.maxRecords)
		return err
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 1 {
		limit = 50
	}

	var rows *sql.Rows
	err := s.withRetry("load records", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT id, ts_utc, operation, source_file, symbol, kind, found,
  target_path, target_line, target_column, duration_us
FROM resolutions
ORDER BY ts_utc DESC, id DESC
LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var (
			rec        Record
			tsRaw      string
			found      int
			durationUS int64
		)
		if err := rows.Scan(
			&rec.ID,
			&tsRaw,
			&rec.Operation,
			&rec.SourceFile,
			&rec.Symbol,
			&rec.Kind,
			&found,
			&rec.TargetPath,
			&rec.TargetLine,
			&rec.TargetCol,
			&durationUS,
		); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse record timestamp %q: %w", tsRaw, err)
		}
		rec.Timestamp = ts.UTC()
		rec.Found = found != 0
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return records, nil
}

func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.withRetry("count records", func() error {
		return s.db.QueryRow(`SELECT COUNT(*) FROM resolutions`).Scan(&n)
	})
	return n, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
