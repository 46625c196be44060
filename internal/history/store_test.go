package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/veracity/internal/model"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history.json"), capacity)
}

func entry(text string) Entry {
	return Entry{
		Text:      text,
		Result:    model.Verdict{Sentence: text, Rating: model.RatingHalfTrue},
		Timestamp: time.Now().UTC(),
	}
}

func TestStore_AppendAndList(t *testing.T) {
	s := newTestStore(t, 0)

	if err := s.Append(entry("first.")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(entry("second.")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "first." || entries[1].Text != "second." {
		t.Errorf("Expected oldest-first storage order, got %q then %q", entries[0].Text, entries[1].Text)
	}
	if entries[0].Result.Rating != model.RatingHalfTrue {
		t.Errorf("Expected verdict persisted, got %q", entries[0].Result.Rating)
	}
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	s := newTestStore(t, 100)

	for i := 0; i < 105; i++ {
		if err := s.Append(entry(fmt.Sprintf("entry %d.", i))); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 100 {
		t.Fatalf("Expected exactly 100 entries, got %d", len(entries))
	}
	if entries[0].Text != "entry 5." {
		t.Errorf("Expected oldest surviving entry to be entry 5, got %q", entries[0].Text)
	}
	if entries[99].Text != "entry 104." {
		t.Errorf("Expected newest entry last, got %q", entries[99].Text)
	}
}

func TestStore_DeleteAtRemovesOldest(t *testing.T) {
	s := newTestStore(t, 0)
	for i := 0; i < 3; i++ {
		_ = s.Append(entry(fmt.Sprintf("entry %d.", i)))
	}

	if err := s.DeleteAt(0); err != nil {
		t.Fatalf("DeleteAt failed: %v", err)
	}

	entries, _ := s.List()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "entry 1." {
		t.Errorf("Expected chronologically oldest removed, got %q first", entries[0].Text)
	}
}

func TestStore_DeleteAtOutOfRange(t *testing.T) {
	s := newTestStore(t, 0)
	_ = s.Append(entry("only."))

	if err := s.DeleteAt(5); err == nil {
		t.Error("Expected error for out-of-range index")
	}
	if err := s.DeleteAt(-1); err == nil {
		t.Error("Expected error for negative index")
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t, 0)
	_ = s.Append(entry("gone."))

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List after clear failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(entries))
	}
}

func TestStore_EmptyFileIsEmptyHistory(t *testing.T) {
	s := newTestStore(t, 0)

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List on missing file failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestStorageIndex_InvertsDisplayOrder(t *testing.T) {
	// Display shows newest first: display 0 is the last stored entry.
	if got := StorageIndex(0, 5); got != 4 {
		t.Errorf("Expected storage index 4, got %d", got)
	}
	if got := StorageIndex(4, 5); got != 0 {
		t.Errorf("Expected storage index 0, got %d", got)
	}

	s := newTestStore(t, 0)
	for i := 0; i < 4; i++ {
		_ = s.Append(entry(fmt.Sprintf("entry %d.", i)))
	}

	// Deleting display index 0 must remove the newest entry.
	entries, _ := s.List()
	if err := s.DeleteAt(StorageIndex(0, len(entries))); err != nil {
		t.Fatalf("DeleteAt failed: %v", err)
	}

	after, _ := s.List()
	if len(after) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(after))
	}
	for _, e := range after {
		if e.Text == "entry 3." {
			t.Error("Expected newest entry removed via display index inversion")
		}
	}
}
