package session

import (
	"errors"
	"fmt"
	"os"

	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/storage"
)

var (
	// ErrNotFound is returned by Load when no session file exists
	ErrNotFound = errors.New("session file not found")
	// ErrCorrupt is returned by Load when the file cannot be used as a session
	ErrCorrupt = errors.New("session file is corrupt")
)

// Validator checks that a blob can be restored by the platform client
type Validator func(blob []byte) error

// Store persists one opaque session blob at a fixed path.
//
// There is no file locking: two processes sharing a path can race on
// Save and Delete. The last rename wins and the file is never half-written.
type Store interface {
	Exists() bool
	Load() ([]byte, error)
	Save(blob []byte) error
	Delete() error
	Path() string
}

// FileStore is the file-backed Store
type FileStore struct {
	path     string
	validate Validator
	logger   logger.Logger
}

// NewFileStore creates a store for path. validate may be nil, in which case
// only an empty file is treated as corrupt.
func NewFileStore(path string, validate Validator) *FileStore {
	return &FileStore{
		path:     path,
		validate: validate,
		logger:   logger.GetLogger().WithField("component", "session"),
	}
}

// SetLogger replaces the store logger
func (s *FileStore) SetLogger(l logger.Logger) {
	s.logger = l.WithField("component", "session")
}

// Path returns the session file location
func (s *FileStore) Path() string {
	return s.path
}

// Exists reports whether a regular file is present at the path
func (s *FileStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Load reads the blob and runs the validator over it
func (s *FileStore) Load() ([]byte, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.KindIO, "session.load", err)
	}

	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorrupt)
	}
	if s.validate != nil {
		if err := s.validate(blob); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	s.logger.DebugWithFields("Session loaded", map[string]interface{}{
		"path":  s.path,
		"bytes": len(blob),
	})
	return blob, nil
}

// Save replaces the session file atomically with mode 0600
func (s *FileStore) Save(blob []byte) error {
	if err := storage.WriteFileAtomic(s.path, blob, 0600); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "session.save", err)
	}
	s.logger.InfoWithFields("Session saved", map[string]interface{}{"path": s.path})
	return nil
}

// Delete removes the session file; a missing file is not an error
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Wrap(apperrors.KindIO, "session.delete", err)
	}
	s.logger.InfoWithFields("Session file deleted", map[string]interface{}{"path": s.path})
	return nil
}

// Info summarizes the session file for the status command
type Info struct {
	Path    string
	Exists  bool
	Size    int64
	ModTime string
}

// Stat describes the session file without reading it
func (s *FileStore) Stat() Info {
	info := Info{Path: s.path}
	st, err := os.Stat(s.path)
	if err != nil {
		return info
	}
	info.Exists = st.Mode().IsRegular()
	info.Size = st.Size()
	info.ModTime = st.ModTime().Format("2006-01-02 15:04:05")
	return info
}
