package cache

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/veracity/internal/model"
)

// Verdicts is a typed view over a Cache for storing verdict records
type Verdicts struct {
	cache Cache
	ttl   time.Duration
}

// NewVerdicts wraps a cache for verdict storage
func NewVerdicts(c Cache, ttl time.Duration) *Verdicts {
	return &Verdicts{cache: c, ttl: ttl}
}

// Get returns the cached verdict for a sentence, if any
func (v *Verdicts) Get(sentence string) (model.Verdict, bool) {
	data, found := v.cache.Get(SentenceKey(sentence))
	if !found {
		return model.Verdict{}, false
	}

	var verdict model.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return model.Verdict{}, false
	}
	return verdict, true
}

// Put stores a verdict keyed by its sentence
func (v *Verdicts) Put(verdict model.Verdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	return v.cache.Set(SentenceKey(verdict.Sentence), data, v.ttl)
}
