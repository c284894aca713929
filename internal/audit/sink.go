// Package audit writes the per-run CSV log of replay attempts.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimestampLayout prefixes every audit file name
const TimestampLayout = "20060102_150405"

// ErrClosed is returned when writing to a closed sink
var ErrClosed = errors.New("audit sink is closed")

// Sink is an append-only CSV file. Every row is flushed to the file before
// Write returns; Close is safe to call more than once.
type Sink struct {
	path    string
	file    *os.File
	writer  *csv.Writer
	columns int
	rows    int

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// FileName builds the audit file name for a run started at startedAt
func FileName(startedAt time.Time, suffix string) string {
	return startedAt.Format(TimestampLayout) + "_" + suffix
}

// Open creates (or appends to) dir/<timestamp>_<suffix> and writes the
// header row when the file is new.
func Open(dir, suffix string, startedAt time.Time, header []string) (*Sink, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("audit header cannot be empty")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	path := filepath.Join(dir, FileName(startedAt, suffix))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat audit file: %w", err)
	}

	s := &Sink{
		path:    path,
		file:    file,
		writer:  csv.NewWriter(file),
		columns: len(header),
	}
	if info.Size() == 0 {
		if err := s.writeRecord(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("write audit header: %w", err)
		}
	}
	return s, nil
}

// Write appends one data row. Rows are padded or truncated to the header
// width so the file stays rectangular.
func (s *Sink) Write(row []string) error {
	if s.closed {
		return ErrClosed
	}
	fitted := make([]string, s.columns)
	copy(fitted, row)
	if err := s.writeRecord(fitted); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	s.rows++
	return nil
}

func (s *Sink) writeRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the file exactly once
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.writer.Flush()
		flushErr := s.writer.Error()
		syncErr := s.file.Sync()
		closeErr := s.file.Close()
		s.closeErr = errors.Join(flushErr, syncErr, closeErr)
	})
	return s.closeErr
}

// Path returns the audit file location
func (s *Sink) Path() string {
	return s.path
}

// Rows returns the number of data rows written by this sink
func (s *Sink) Rows() int {
	return s.rows
}
