package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps media blobs (avatars, article covers) referenced from snapshot
// payloads by key. Snapshot disposal is the only writer-side consumer here:
// purging a tombstone releases the blobs its payload points at.
type Store interface {
	Put(key string, r io.Reader) error
	Open(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
	Remove(key string) error
}

// LocalStore stores blobs under a confined root directory. Keys are flat,
// slash-free names; anything that would escape the root is rejected.
type LocalStore struct {
	rootAbs string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("blob root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}

	if err := os.MkdirAll(rootAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}

	return &LocalStore{rootAbs: rootAbs}, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("blob key cannot be empty")
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." || strings.Contains(trimmed, "\x00") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	return filepath.Join(s.rootAbs, trimmed), nil
}

func (s *LocalStore) Put(key string, r io.Reader) error {
	resolved, err := s.resolve(key)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open blob %q: %w", key, err)
	}

	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("write blob %q: %w", key, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close blob %q: %w", key, closeErr)
	}

	return nil
}

func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	resolved, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("open blob %q: %w", key, err)
	}

	return f, nil
}

func (s *LocalStore) Exists(key string) (bool, error) {
	resolved, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Remove deletes a blob. A missing blob is not an error so that disposal can
// re-run over a partially purged payload.
func (s *LocalStore) Remove(key string) error {
	resolved, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %q: %w", key, err)
	}

	return nil
}
