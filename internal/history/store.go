// Package history is the append-only, capacity-bounded log of completed
// checks. It is independent of the session verdict cache and survives across
// sessions. Storage order is oldest-first; display order is the caller's
// concern (see StorageIndex).
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/veracity/internal/model"
)

// DefaultCapacity is the retained-entry cap when none is configured
const DefaultCapacity = 100

// Entry is one completed check. Result holds only the first verdict of the
// batch; storing the primary verdict only is a deliberate simplification
// carried over from the display side.
type Entry struct {
	Text      string        `json:"text"`
	Result    model.Verdict `json:"result"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store persists entries as a single JSON file, read back in full on every
// list. There is no change notification; callers re-read after mutating.
type Store struct {
	mu       sync.Mutex
	path     string
	capacity int
}

// NewStore creates a store backed by the given file. capacity <= 0 selects
// DefaultCapacity.
func NewStore(path string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{path: path, capacity: capacity}
}

// List returns all entries in storage order, oldest first. A missing file
// is an empty history, not an error.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Append adds an entry at the back, evicting from the front once the store
// is at capacity. After Append the invariant len(entries) <= capacity holds.
func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > s.capacity {
		entries = entries[len(entries)-s.capacity:]
	}

	return s.save(entries)
}

// DeleteAt removes the entry at the given storage-order index. Display
// indices must be inverted with StorageIndex first.
func (s *Store) DeleteAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(entries) {
		return fmt.Errorf("history index out of range: %d", index)
	}

	entries = append(entries[:index], entries[index+1:]...)
	return s.save(entries)
}

// Clear removes all entries
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]Entry{})
}

// StorageIndex converts a newest-first display index into the oldest-first
// storage index for a history of length n.
func StorageIndex(displayIndex, n int) int {
	return n - 1 - displayIndex
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return entries, nil
}

// save writes the full entry list atomically (temp file + rename)
func (s *Store) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close history: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
