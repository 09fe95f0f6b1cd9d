package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Collection keys for the persisted engine state.
const (
	KeyScheduledPosts    = "post_schedule"
	KeyPostHistory       = "post_history"
	KeyProcessedMentions = "processed_mentions"
	KeyProcessedDMs      = "processed_dms"
	KeyResponseHistory   = "response_history"
)

// FileStore persists collections as JSON files, one file per collection
// key. All mutations of a given collection are serialized behind a
// per-collection writer lock; the underlying filesystem is not assumed
// to provide atomic rewrites, so saves go through a temp file + rename.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a store
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the data directory backing the store
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads the collection into out. A missing file leaves out
// untouched and returns nil; a file that cannot be parsed is surfaced
// as an error so the caller fails to initialize loudly.
func (s *FileStore) Load(key string, out any) error {
	lock := s.lock(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading collection %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("collection %s is corrupted: %w", key, err)
	}

	return nil
}

// Save overwrites the collection with v
func (s *FileStore) Save(key string, v any) error {
	lock := s.lock(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", key, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing collection %s: %w", key, err)
	}

	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("replacing collection %s: %w", key, err)
	}

	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) lock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}
