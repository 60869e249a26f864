// Package checkpoint persists the last forwarded journal cursor per source.
//
// Each source owns one plain-text file, <dir>/<sanitized name>.cursor, holding
// only the raw cursor. Writes go to a sibling .tmp file that is fsynced and
// renamed over the target, so a reader sees either the old or the new cursor
// and never a partial one.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// FileSuffix is appended to the sanitized source name
const FileSuffix = ".cursor"

const tmpSuffix = ".tmp"

// PersistenceError reports a failed checkpoint write, rename or delete.
// The previously persisted cursor stays authoritative.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FileStore is the checkpoint store of a single source. It is not safe for
// concurrent use; one collector goroutine owns it.
type FileStore struct {
	path   string
	source string
	logger *zap.Logger
}

// NewFileStore creates the checkpoint directory if needed and returns the
// store for sourceName. Failing to create the directory is a startup error.
func NewFileStore(dir, sourceName string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cursor directory %s: %w", dir, err)
	}

	return &FileStore{
		path:   filepath.Join(dir, FileName(sourceName)),
		source: sourceName,
		logger: logger,
	}, nil
}

// Path returns the checkpoint file location
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the persisted cursor, or "" when there is none. A missing,
// unreadable or blank file all mean "start from the current boot"; read
// failures are logged and never returned. At most one trailing line ending
// is stripped, so any cursor without a newline round-trips unchanged.
func (s *FileStore) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("No cursor file found, starting fresh",
				zap.String("source", s.source))
		} else {
			s.logger.Warn("Failed to read cursor file, starting fresh",
				zap.String("source", s.source),
				zap.String("path", s.path),
				zap.Error(err))
		}
		return ""
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		s.logger.Debug("Cursor file is empty", zap.String("source", s.source))
		return ""
	}
	// A hand-edited file may end in a newline; the cursor itself is verbatim
	cursor := content
	if strings.HasSuffix(cursor, "\n") {
		cursor = strings.TrimSuffix(strings.TrimSuffix(cursor, "\n"), "\r")
	}

	s.logger.Debug("Loaded cursor",
		zap.String("source", s.source),
		zap.String("cursor", cursor))
	return cursor
}

// Save atomically replaces the persisted cursor
func (s *FileStore) Save(cursor string) error {
	if cursor == "" {
		return &PersistenceError{Op: "save", Path: s.path, Err: errors.New("empty cursor")}
	}

	tmpPath := s.path + tmpSuffix
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &PersistenceError{Op: "create", Path: tmpPath, Err: err}
	}

	// Write, sync, close, rename. Any failure removes the temporary file.
	if _, err := file.WriteString(cursor); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return &PersistenceError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return &PersistenceError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return &PersistenceError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &PersistenceError{Op: "rename", Path: s.path, Err: err}
	}

	// Make the rename itself durable
	if dir, err := os.Open(filepath.Dir(s.path)); err == nil {
		dir.Sync()
		dir.Close()
	}

	s.logger.Debug("Saved cursor",
		zap.String("source", s.source),
		zap.String("cursor", cursor))
	return nil
}

// Reset deletes the checkpoint so the next fetch starts at the current boot.
// A missing file is not an error.
func (s *FileStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &PersistenceError{Op: "remove", Path: s.path, Err: err}
	}
	s.logger.Debug("Reset cursor", zap.String("source", s.source))
	return nil
}

// FileName returns the checkpoint file name for a source
func FileName(sourceName string) string {
	return SanitizeName(sourceName) + FileSuffix
}

// SanitizeName maps a source name onto letters, digits, '-' and '_'. Every
// other rune becomes '_', which keeps path separators and dots out of the
// file name while staying readable.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
