// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package emit

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Sink receives output rows.
type Sink interface {
	WriteHeader() error
	Emit(row types.OutputRow) error
}

// FileSink appends rows to a TSV file. The file is opened in append mode,
// written and closed for every row, so nothing is buffered in memory.
type FileSink struct {
	path string
	mode types.HeaderMode
}

// NewFileSink returns a FileSink writing to path. An empty mode means
// types.HeaderAlways.
func NewFileSink(path string, mode types.HeaderMode) *FileSink {
	if mode == "" {
		mode = types.HeaderAlways
	}
	return &FileSink{path: path, mode: mode}
}

// Path returns the output file path.
func (s *FileSink) Path() string { return s.path }

// WriteHeader appends the header line. In if-empty mode it is skipped when
// the file already has content.
func (s *FileSink) WriteHeader() error {
	if s.mode == types.HeaderIfEmpty {
		info, err := os.Stat(s.path)
		if err == nil && info.Size() > 0 {
			return nil
		}
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checking output file %s: %w", s.path, err)
		}
	}
	return s.appendLine(FormatLine(Header))
}

// Emit appends one row.
func (s *FileSink) Emit(row types.OutputRow) error {
	return s.appendLine(FormatLine(row.Fields()))
}

func (s *FileSink) appendLine(line string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file %s: %w", s.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("writing output file %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file %s: %w", s.path, err)
	}
	return nil
}

// WriterSink writes rows to an io.Writer, used for --dry-run.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteHeader() error {
	return s.write(FormatLine(Header))
}

func (s *WriterSink) Emit(row types.OutputRow) error {
	return s.write(FormatLine(row.Fields()))
}

func (s *WriterSink) write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}
