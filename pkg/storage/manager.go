package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manager owns the report output directory
type Manager struct {
	outputDir string
}

// FileInfo describes one file in the output directory
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// NewManager creates the output directory if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// Save atomically writes data under name and returns the full path
func (m *Manager) Save(name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	path := filepath.Join(m.outputDir, name)
	if err := WriteFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	return path, nil
}

// List returns files whose names start with prefix, newest first
func (m *Manager) List(prefix string) ([]FileInfo, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(m.outputDir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Name != files[j].Name {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
