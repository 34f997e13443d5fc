package session

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
)

func newTestStore(t *testing.T, validate Validator) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"), validate)
	s.SetLogger(logger.NewNopLogger())
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newTestStore(t, nil)
	assert.False(t, s.Exists())

	require.NoError(t, s.Save([]byte(`{"cookies":[]}`)))
	assert.True(t, s.Exists())

	blob, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"cookies":[]}`, string(blob))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	reject := func(blob []byte) error {
		if string(blob) != "good" {
			return errors.New("unexpected token")
		}
		return nil
	}

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "empty file", content: "", wantErr: ErrCorrupt},
		{name: "validator rejects", content: "garbage", wantErr: ErrCorrupt},
		{name: "validator accepts", content: "good"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, reject)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0600))

			blob, err := s.Load()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, blob)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(blob))
		})
	}
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)
	require.NoError(t, s.Save([]byte("x")))

	require.NoError(t, s.Delete())
	assert.False(t, s.Exists())
	require.NoError(t, s.Delete())
}

func TestFileStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	// the session path is an existing non-empty directory, so rename fails
	path := filepath.Join(dir, "session.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0755))

	s := NewFileStore(path, nil)
	s.SetLogger(logger.NewNopLogger())
	err := s.Save([]byte("x"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindIO, apperrors.KindOf(err))
	assert.False(t, s.Exists())
}

func TestFileStoreStat(t *testing.T) {
	s := newTestStore(t, nil)
	assert.False(t, s.Stat().Exists)

	require.NoError(t, s.Save([]byte("abc")))
	info := s.Stat()
	assert.True(t, info.Exists)
	assert.Equal(t, int64(3), info.Size)
	assert.NotEmpty(t, info.ModTime)
}
