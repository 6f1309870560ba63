// Package research implements the retrieval agent: it scores a fixed
// document catalog against a query by token overlap.
package research

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/m-mizutani/huddle/pkg/utils/mathutil"
)

const (
	// DefaultTopK is the number of results returned when the caller has no preference
	DefaultTopK = 5

	defaultSource = "mock_kb"
	titleBonus    = 2
)

// RandomSource provides uniform floats in [0, 1) for zero-score confidences
type RandomSource interface {
	Float64() float64
}

// Agent searches the catalog it was created with
type Agent struct {
	docs []model.Document

	mu  sync.Mutex
	rnd RandomSource
}

// Option is a functional option for Agent
type Option func(*Agent)

// WithRandom sets the random source used for documents that match nothing
func WithRandom(rnd RandomSource) Option {
	return func(a *Agent) {
		a.rnd = rnd
	}
}

// WithSeed makes zero-score confidences reproducible
func WithSeed(seed uint64) Option {
	return WithRandom(rand.New(rand.NewPCG(seed, seed)))
}

// New creates a new research Agent over docs
func New(docs []model.Document, opts ...Option) *Agent {
	a := &Agent{
		docs: slices.Clone(docs),
		rnd:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type scoredDoc struct {
	score int
	doc   model.Document
}

// Search returns up to topK documents ordered by relevance to query. Every
// distinct lower-cased query token found anywhere in the title, text or tags
// counts one point, and the whole query appearing in the title adds two.
// Equal scores keep catalog order.
func (a *Agent) Search(query string, topK int) []model.RetrievalResult {
	q := strings.ToLower(query)
	tokens := uniqueTokens(q)

	scored := make([]scoredDoc, 0, len(a.docs))
	for _, doc := range a.docs {
		haystack := strings.ToLower(doc.Title + " " + doc.Text + " " + strings.Join(doc.Tags, " "))
		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		if doc.Title != "" && strings.Contains(strings.ToLower(doc.Title), q) {
			score += titleBonus
		}
		scored = append(scored, scoredDoc{score: score, doc: doc})
	}

	slices.SortStableFunc(scored, func(x, y scoredDoc) int {
		return cmp.Compare(y.score, x.score)
	})

	if topK < 0 {
		topK = 0
	}
	if topK < len(scored) {
		scored = scored[:topK]
	}

	results := make([]model.RetrievalResult, 0, len(scored))
	for _, s := range scored {
		source := s.doc.Source
		if source == "" {
			source = defaultSource
		}
		tags := slices.Clone(s.doc.Tags)
		if tags == nil {
			tags = []string{}
		}
		results = append(results, model.RetrievalResult{
			Title:      s.doc.Title,
			Text:       s.doc.Text,
			Tags:       tags,
			Source:     source,
			Confidence: a.confidence(s.score),
		})
	}
	return results
}

// Len returns the catalog size
func (a *Agent) Len() int {
	return len(a.docs)
}

// confidence maps a match score to [0.5, 0.95]. A score of zero draws from
// [0.4, 0.55) to mimic low quality web results.
func (a *Agent) confidence(score int) float64 {
	if score > 0 {
		return mathutil.Round(min(0.5+0.1*float64(score), 0.95), 2)
	}

	a.mu.Lock()
	r := a.rnd.Float64()
	a.mu.Unlock()
	return mathutil.Round(0.4+r*0.15, 2)
}

func uniqueTokens(q string) []string {
	fields := strings.Fields(q)
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
