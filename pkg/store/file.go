package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
)

// FileStore is a file-based mixup store for CLI use.
// Mixups are stored as JSON files in one directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/inkpipe/mixups/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, unavailable(err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "inkpipe", "mixups")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, unavailable(err, "create mixup dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) mixupPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) GetMixup(ctx context.Context, id string) (mixup.Mixup, error) {
	if err := checkID(id); err != nil {
		return mixup.Mixup{}, notFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.mixupPath(id), id)
}

func (s *FileStore) read(path, id string) (mixup.Mixup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mixup.Mixup{}, notFound(id)
		}
		return mixup.Mixup{}, unavailable(err, "read mixup %s", id)
	}
	var m mixup.Mixup
	if err := json.Unmarshal(data, &m); err != nil {
		return mixup.Mixup{}, errors.Wrap(errors.ErrCodeInternal, err, "parse mixup %s", id)
	}
	return m, nil
}

func (s *FileStore) SaveMixup(ctx context.Context, m mixup.Mixup) error {
	m, err := prepare(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.mixupPath(m.ID)
	if old, err := s.read(path, m.ID); err == nil {
		m.CreatedAt = old.CreatedAt
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal mixup %s", m.ID)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return unavailable(err, "write mixup %s", m.ID)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return unavailable(err, "write mixup %s", m.ID)
	}
	return nil
}

func (s *FileStore) ListMixups(ctx context.Context) ([]mixup.Mixup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, unavailable(err, "read mixup dir")
	}
	var out []mixup.Mixup
	for _, entry := range entries {
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if entry.IsDir() || !ok {
			continue
		}
		m, err := s.read(filepath.Join(s.baseDir, entry.Name()), id)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	sortMixups(out)
	return out, nil
}

func (s *FileStore) DeleteMixup(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return notFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.mixupPath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return unavailable(err, "remove mixup %s", id)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding mixup files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
