package cache

import (
	"testing"
	"time"

	"github.com/ppiankov/veracity/internal/model"
)

func TestSentenceKey_Normalizes(t *testing.T) {
	a := SentenceKey("The Sky Is Blue.")
	b := SentenceKey("  the sky is blue.  ")
	c := SentenceKey("the sky is green.")

	if a != b {
		t.Error("Expected case/whitespace variants to share a key")
	}
	if a == c {
		t.Error("Expected distinct sentences to have distinct keys")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Expected hit with value v, got %q found=%v", val, found)
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	c := NewDiskCache(dir, time.Hour)
	if err := c.Set(SentenceKey("A fact."), []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened := NewDiskCache(dir, time.Hour)
	val, found := reopened.Get(SentenceKey("A fact."))
	if !found || string(val) != "payload" {
		t.Errorf("Expected persisted value, got %q found=%v", val, found)
	}
}

func TestDiskCache_ExpiredEntryMisses(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	warm := NewDiskCache(dir, time.Hour)
	if err := warm.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	val, found := layered.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("Expected disk hit through the layered cache, got found=%v", found)
	}

	// Now present in the memory layer too
	if _, found := layered.memory.Get("k"); !found {
		t.Error("Expected disk hit promoted to memory")
	}
}

func TestVerdicts_RoundTrip(t *testing.T) {
	v := NewVerdicts(NewMemoryCache(time.Minute, time.Minute), time.Minute)

	verdict := model.Verdict{
		Sentence: "The sky is blue.",
		Rating:   model.RatingTrue,
		Severity: model.SeverityLow,
		Sources:  []string{"https://example.org/sky"},
	}
	if err := v.Put(verdict); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found := v.Get("the sky is blue.")
	if !found {
		t.Fatal("Expected case-insensitive hit")
	}
	if got.Rating != model.RatingTrue || len(got.Sources) != 1 {
		t.Errorf("Unexpected verdict: %+v", got)
	}

	if _, found := v.Get("unchecked sentence."); found {
		t.Error("Expected miss for unchecked sentence")
	}
}
