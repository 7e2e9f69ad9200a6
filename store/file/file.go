// Package file provides a checkpoint store backed by JSON files on local disk.
package file

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/collabgraph/store"
)

// FileCheckpointStore writes each checkpoint to
// <root>/thread-<base64url thread id>/<version>-<checkpoint id>.json.
// Load scans thread directories by file name suffix.
type FileCheckpointStore struct {
	root string
	mu   sync.RWMutex
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates the root directory if it does not exist.
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if path == "" {
		return nil, errors.New("file checkpoint store: empty path")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{root: path}, nil
}

// threadDir encodes the thread ID so that any ID, including "", "." and "..",
// maps to its own directory directly under root.
func (s *FileCheckpointStore) threadDir(threadID string) (string, error) {
	dir := filepath.Join(s.root, "thread-"+base64.RawURLEncoding.EncodeToString([]byte(threadID)))
	if filepath.Dir(dir) != filepath.Clean(s.root) {
		return "", fmt.Errorf("invalid thread id %q", threadID)
	}
	return dir, nil
}

func fileName(cp *store.Checkpoint) string {
	return fmt.Sprintf("%010d-%s.json", cp.Version, url.PathEscape(cp.ID))
}

// Save stores a checkpoint
func (s *FileCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return errors.New("checkpoint must have an ID")
	}
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.threadDir(checkpoint.ThreadID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}

	// Write to a temp file then rename so readers never see a partial document
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, fileName(checkpoint))); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (s *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suffix := "-" + url.PathEscape(checkpointID) + ".json"
	var found *store.Checkpoint
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		cp, err := readCheckpoint(path)
		if err != nil {
			return err
		}
		if cp.ID == checkpointID {
			found = cp
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	return found, nil
}

// Latest returns the highest-version checkpoint of a thread
func (s *FileCheckpointStore) Latest(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	list, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
	}
	return list[len(list)-1], nil
}

// List returns all checkpoints for a thread ordered by version
func (s *FileCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.threadDir(threadID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []*store.Checkpoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	out := make([]*store.Checkpoint, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		cp, err := readCheckpoint(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	store.SortByVersion(out)
	return out, nil
}

// Clear removes all checkpoints for a thread
func (s *FileCheckpointStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.threadDir(threadID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

func readCheckpoint(path string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", path, err)
	}
	return &cp, nil
}
