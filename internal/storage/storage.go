// Package storage reads and writes documents in the shared code directory.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/zjrosen/codepad/internal/log"
)

var (
	// ErrPermissionDenied means the directory or file cannot be created or written.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidName rejects file names that are empty or leave the code directory.
	ErrInvalidName = errors.New("invalid file name")
)

// IOError is a read or write failure other than a permission problem.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store is a directory of documents on an afero filesystem.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a store rooted at dir on fsys.
func New(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: filepath.Clean(dir)}
}

// NewOS creates a store on the real filesystem.
func NewOS(dir string) *Store {
	return New(afero.NewOsFs(), dir)
}

// Dir returns the code directory.
func (s *Store) Dir() string { return s.dir }

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Path returns the location of name inside the code directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// EnsureDir creates the code directory when missing.
func (s *Store) EnsureDir() error {
	ok, err := afero.DirExists(s.fs, s.dir)
	if err == nil && ok {
		return nil
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		log.ErrorErr(log.CatStorage, "Failed to create directory", err, "dir", s.dir)
		return classify("mkdir", s.dir, err)
	}
	log.Debug(log.CatStorage, "Created directory", "dir", s.dir)
	return nil
}

// Write saves content as name in the code directory, creating the directory
// first. name must be a bare file name.
func (s *Store) Write(name, content string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	path := s.Path(name)
	if err := afero.WriteFile(s.fs, path, []byte(content), 0o644); err != nil {
		log.ErrorErr(log.CatStorage, "Failed to write file", err, "path", path)
		return classify("write", path, err)
	}
	log.Debug(log.CatStorage, "File saved", "path", path, "bytes", len(content))
	return nil
}

// Read returns the content of path. Relative paths resolve against the code
// directory.
func (s *Store) Read(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = s.Path(path)
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", classify("read", path, err)
	}
	return string(data), nil
}

// Exists reports whether name exists in the code directory.
func (s *Store) Exists(name string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.Path(name))
	if err != nil {
		return false, classify("stat", s.Path(name), err)
	}
	return ok, nil
}

// Remove deletes name from the code directory. A missing file is not an error.
func (s *Store) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	path := s.Path(name)
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return classify("remove", path, err)
	}
	return nil
}

// ValidateName accepts bare file names only.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func classify(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: cannot %s %s", ErrPermissionDenied, op, path)
	}
	return &IOError{Op: op, Path: path, Err: err}
}
