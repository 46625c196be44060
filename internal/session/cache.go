package session

import (
	"strings"
	"sync"

	"github.com/ppiankov/veracity/internal/model"
)

// Cache is the session-scoped verdict store. It deduplicates outbound checks
// (callers filter through FilterUnknown before hitting the network) and
// assigns each stored verdict a session-local id. The id counter lives on
// the cache itself, never in package state.
//
// Lifetime is one session (one loaded document, one CLI run); there is no
// eviction.
type Cache struct {
	mu       sync.Mutex
	verdicts []model.Verdict
	index    map[string]int // normalized sentence -> position in verdicts
	nextID   int
}

// NewCache creates an empty session cache
func NewCache() *Cache {
	return &Cache{
		index: make(map[string]int),
	}
}

// Normalize produces the join key for sentence matching: trimmed and
// lowercased. Matching is case-insensitive throughout; the verbatim trimmed
// sentence is what gets stored.
func Normalize(sentence string) string {
	return strings.ToLower(strings.TrimSpace(sentence))
}

// Lookup returns the verdict for a sentence by exact normalized match
func (c *Cache) Lookup(sentence string) (model.Verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[Normalize(sentence)]
	if !ok {
		return model.Verdict{}, false
	}
	return c.verdicts[pos], true
}

// FilterUnknown returns, in order, the sentences that have no verdict yet.
// Duplicates within the batch are collapsed so one request never asks for
// the same sentence twice.
func (c *Cache) FilterUnknown(sentences []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var unknown []string
	seen := make(map[string]bool)

	for _, sentence := range sentences {
		key := Normalize(sentence)
		if key == "" || seen[key] {
			continue
		}
		if _, ok := c.index[key]; ok {
			continue
		}
		seen[key] = true
		unknown = append(unknown, sentence)
	}

	return unknown
}

// InsertAll stores new verdicts, assigning each the next session-local id
// (starting at 0, strictly increasing, never reused). A verdict whose
// sentence is already cached is ignored: first write wins, ids are not
// burned on duplicates.
func (c *Cache) InsertAll(verdicts []model.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range verdicts {
		key := Normalize(v.Sentence)
		if key == "" {
			continue
		}
		if _, ok := c.index[key]; ok {
			continue
		}

		v.Sentence = strings.TrimSpace(v.Sentence)
		v.LocalID = c.nextID
		c.nextID++

		c.index[key] = len(c.verdicts)
		c.verdicts = append(c.verdicts, v)
	}
}

// All returns the cached verdicts in insertion order
func (c *Cache) All() []model.Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Verdict, len(c.verdicts))
	copy(out, c.verdicts)
	return out
}

// Len returns the number of cached verdicts
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.verdicts)
}
