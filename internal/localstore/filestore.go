// Package localstore is a durable key-value snapshot store backed by JSON
// files. It stands in for browser local storage: values are whole-collection
// snapshots, reads and writes are synchronous, and a polling watcher raises
// a "changed" signal when another process writes to the same key.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var ErrNoKey = errors.New("key not found")

type FileStore struct {
	mu  sync.RWMutex
	dir string

	// mod times recorded at our own reads/writes; the watcher compares
	// against these to detect external writers.
	mtimes map[string]time.Time
}

// Open creates the backing directory if needed and returns the store.
func Open(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		mtimes: make(map[string]time.Time),
	}, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(key string) string {
	// Keys are caller-controlled identifiers; keep the filename flat.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Get returns the stored snapshot for key, or ErrNoKey.
func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoKey
		}
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return data, nil
}

// Put atomically replaces the snapshot for key.
func (s *FileStore) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", key, err)
	}

	if info, err := os.Stat(path); err == nil {
		s.mtimes[key] = info.ModTime()
	}
	return nil
}

// Delete removes the snapshot for key. Missing keys are not an error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	delete(s.mtimes, key)
	return nil
}

// Keys lists every stored snapshot key.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Watch polls the backing files and invokes onChange with each key whose
// file was modified by someone other than this store. It blocks until the
// context is cancelled.
func (s *FileStore) Watch(ctx context.Context, interval time.Duration, onChange func(key string)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, key := range s.changedKeys() {
				onChange(key)
			}
		}
	}
}

func (s *FileStore) changedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var changed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		info, err := e.Info()
		if err != nil {
			continue
		}
		seen, ok := s.mtimes[key]
		if !ok || info.ModTime().After(seen) {
			s.mtimes[key] = info.ModTime()
			if ok {
				changed = append(changed, key)
			}
			// A key never seen before is recorded silently: the first
			// observation establishes the baseline.
		}
	}
	return changed
}
