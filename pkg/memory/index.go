// Package memory provides the in-process similarity index used to store and
// recall findings. Records are kept in insertion order and the TF-IDF
// feature space is refitted over the whole corpus on every insertion.
package memory

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/huddle/pkg/model"
)

// Index stores memory records and answers keyword and vector similarity queries.
// It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	records []model.MemoryRecord
	corpus  []string
	space   *vectorizer
	matrix  []sparseVector
	nextID  model.MemoryID
	now     func() time.Time
}

// Option is a functional option for Index
type Option func(*Index)

// WithClock sets the time source used to stamp new records
func WithClock(now func() time.Time) Option {
	return func(ix *Index) {
		ix.now = now
	}
}

// New creates an empty Index
func New(opts ...Option) *Index {
	ix := &Index{
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// AddInput contains the fields of a record to store
type AddInput struct {
	Topic      string
	Text       string
	Source     string
	Agent      string
	Confidence float64
	Metadata   map[string]any
}

// Add appends a new record and refits the feature space over all records.
// The cost is linear in the number of stored records.
func (ix *Index) Add(input AddInput) model.MemoryRecord {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rec := model.MemoryRecord{
		ID:         ix.nextID,
		Timestamp:  ix.now(),
		Topic:      input.Topic,
		Text:       input.Text,
		Source:     input.Source,
		Agent:      input.Agent,
		Confidence: input.Confidence,
		Metadata:   input.Metadata,
	}.Clone()
	ix.nextID++

	ix.records = append(ix.records, rec)
	ix.corpus = append(ix.corpus, strings.Join([]string{rec.Topic, rec.Text, rec.Source, rec.Agent}, " "))
	ix.rebuild()

	return rec.Clone()
}

// rebuild must be called with the write lock held
func (ix *Index) rebuild() {
	if len(ix.corpus) == 0 {
		ix.space, ix.matrix = nil, nil
		return
	}
	ix.space, ix.matrix = fit(ix.corpus)
}

// KeywordSearch returns records whose topic or text contains term
// (case-insensitive), in insertion order, at most limit of them.
func (ix *Index) KeywordSearch(term string, limit int) []model.MemoryRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	needle := strings.ToLower(term)
	matched := []model.MemoryRecord{}
	for _, rec := range ix.records {
		if len(matched) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(rec.Topic), needle) || strings.Contains(strings.ToLower(rec.Text), needle) {
			matched = append(matched, rec.Clone())
		}
	}
	return matched
}

// VectorSearch ranks every record by cosine similarity to query and returns
// the top limit hits. Equal scores keep insertion order.
func (ix *Index) VectorSearch(query string, limit int) []model.ScoredRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.space == nil || len(ix.records) == 0 || limit <= 0 {
		return []model.ScoredRecord{}
	}

	qv := ix.space.transform(query)
	hits := make([]model.ScoredRecord, len(ix.records))
	for i, rec := range ix.records {
		hits[i] = model.ScoredRecord{
			Record: rec,
			Score:  cosineSimilarity(qv, ix.matrix[i]),
		}
	}

	slices.SortStableFunc(hits, func(a, b model.ScoredRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if limit < len(hits) {
		hits = hits[:limit]
	}
	for i := range hits {
		hits[i].Record = hits[i].Record.Clone()
	}
	return hits
}

// All returns a snapshot of every record in insertion order
func (ix *Index) All() []model.MemoryRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]model.MemoryRecord, len(ix.records))
	for i, rec := range ix.records {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of stored records
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}
