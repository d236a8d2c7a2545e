package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const RiskauditDir = ".riskaudit"
const DataDir = "data"
const keyExt = ".json"

// FilesystemStore keeps one JSON file per key under <root>/.riskaudit/data.
type FilesystemStore struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) baseDir() string {
	return filepath.Join(s.root, RiskauditDir, DataDir)
}

// ResolvePath maps a key to its file and prevents traversal out of the data
// directory.
func (s *FilesystemStore) ResolvePath(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}

	baseDir := s.baseDir()
	cleanPath := filepath.Clean(filepath.Join(baseDir, key+keyExt))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return cleanPath, nil
}

func (s *FilesystemStore) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(s.baseDir(), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", RiskauditDir, err)
	}
	return nil
}

func (s *FilesystemStore) Get(key string) ([]byte, error) {
	path, err := s.ResolvePath(key)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeyNotFound
	}

	retryer := retry.New[[]byte](s.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		return data, nil
	})
}

func (s *FilesystemStore) Set(key string, value []byte) error {
	path, err := s.ResolvePath(key)
	if err != nil {
		return err
	}
	if err := s.Initialize(); err != nil {
		return err
	}

	// Temp file plus rename keeps each key write atomic.
	tmp := path + ".tmp"
	// G306: Use 0600 for files
	if err := os.WriteFile(tmp, value, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStore) Delete(key string) error {
	path, err := s.ResolvePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStore) Scan(prefix string) ([]Entry, error) {
	files, err := os.ReadDir(s.baseDir())
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}

	out := make([]Entry, 0)
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, keyExt) {
			continue
		}
		key := strings.TrimSuffix(name, keyExt)
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		data, err := s.Get(key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: key, Value: data})
	}
	sortEntries(out)
	return out, nil
}

func (s *FilesystemStore) Close() error {
	return nil
}
