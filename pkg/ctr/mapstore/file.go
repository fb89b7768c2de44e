package mapstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps the mapping table in memory and persists it to a
// JSON side file. Loading tolerates a missing or corrupt file (empty
// table, one warning); Flush replaces the file atomically via a
// temp-file rename.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	table map[string]string
	dirty bool
	log   *slog.Logger
}

type fileSchema struct {
	Mappings []Mapping `json:"mappings"`
}

// OpenFile loads the side file at path. The returned store is always
// usable; load problems degrade to an empty table.
func OpenFile(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	s := &FileStore{
		path:  path,
		table: make(map[string]string),
		log:   log,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("mapping file unreadable, starting empty", "path", path, "error", err)
		}
		return s
	}

	var doc fileSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn("mapping file corrupt, starting empty", "path", path, "error", err)
		return s
	}
	for _, m := range doc.Mappings {
		if m.Key == "" || m.Name == "" {
			continue
		}
		s.table[m.Key] = m.Name
	}
	return s
}

// Close flushes pending entries.
func (s *FileStore) Close() error {
	return s.Flush(context.Background())
}

func (s *FileStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.table[key]
	return name, ok, nil
}

// Insert adds or overwrites an entry. Overwriting with a different
// name is allowed (corrects past misclassifications) and is logged.
func (s *FileStore) Insert(ctx context.Context, key, name string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.table[key]
	if existed && prev == name {
		return OutcomeUnchanged, nil
	}
	s.table[key] = name
	s.dirty = true
	if existed {
		s.log.Info("mapping overwritten", "key", key, "old", prev, "new", name)
		return OutcomeUpdated, nil
	}
	return OutcomeCreated, nil
}

func (s *FileStore) All(ctx context.Context) ([]Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

func (s *FileStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table), nil
}

// Flush writes the full table back, replacing prior contents. Entries
// are sorted by key so successive files diff cleanly.
func (s *FileStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(fileSchema{Mappings: s.snapshotLocked()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".mappings-*.json")
	if err != nil {
		return fmt.Errorf("write mappings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write mappings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write mappings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace mappings: %w", err)
	}

	s.dirty = false
	return nil
}

func (s *FileStore) snapshotLocked() []Mapping {
	out := make([]Mapping, 0, len(s.table))
	for k, v := range s.table {
		out = append(out, Mapping{Key: k, Name: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
