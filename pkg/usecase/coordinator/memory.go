package coordinator

import (
	"context"
	"fmt"

	"github.com/m-mizutani/huddle/pkg/memory"
	"github.com/m-mizutani/huddle/pkg/model"
)

const (
	// NoMemoryAnswer is returned by AskMemory when neither search finds a record
	NoMemoryAnswer = "No relevant memory found."

	answerTextLimit = 300
)

// Memory query outcomes reported to the Recorder
const (
	OutcomeSimilar = "similar"
	OutcomeKeyword = "keyword"
	OutcomeNone    = "none"
)

// MemoryDetails carries the raw hits of both searches
type MemoryDetails struct {
	KeywordResults []model.MemoryRecord `json:"keyword_results"`
	VectorResults  []model.ScoredRecord `json:"vector_results"`
}

// MemoryAnswer is the outcome of AskMemory
type MemoryAnswer struct {
	Answer     string        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Details    MemoryDetails `json:"details"`
}

// AskMemory looks question up in the memory store with both keyword and
// vector search. A vector hit is preferred over a keyword hit.
func (c *Coordinator) AskMemory(ctx context.Context, question string) *MemoryAnswer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record(ctx, "memory_query", map[string]any{"query": question})

	kw := c.memory.KeywordSearch(question, c.memoryK)
	vec := c.memory.VectorSearch(question, c.memoryK)

	c.record(ctx, "memory_query_result", map[string]any{
		"counts": map[string]any{"kw": len(kw), "vec": len(vec)},
	})

	resp := &MemoryAnswer{
		Answer: NoMemoryAnswer,
		Details: MemoryDetails{
			KeywordResults: kw,
			VectorResults:  vec,
		},
	}

	outcome := OutcomeNone
	switch {
	case len(vec) > 0:
		hit := vec[0]
		resp.Answer = fmt.Sprintf("Memory found (similar): %s - %s (score=%.3f)",
			hit.Record.Topic, headRunes(hit.Record.Text, answerTextLimit), hit.Score)
		resp.Confidence = hit.Record.Confidence
		outcome = OutcomeSimilar
	case len(kw) > 0:
		hit := kw[0]
		resp.Answer = fmt.Sprintf("Memory found (keyword): %s - %s",
			hit.Topic, headRunes(hit.Text, answerTextLimit))
		resp.Confidence = hit.Confidence
		outcome = OutcomeKeyword
	}
	c.recorder.ObserveMemoryQuery(outcome)

	return resp
}

// StoreFinding stores a fact directly into the memory store without running a query
func (c *Coordinator) StoreFinding(ctx context.Context, input memory.AddInput) model.MemoryRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.memory.Add(input)
	c.record(ctx, "store_finding", recordPayload(rec))
	c.recorder.SetMemoryRecords(c.memory.Len())
	return rec
}

func recordPayload(rec model.MemoryRecord) map[string]any {
	return map[string]any{
		"id":         rec.ID,
		"timestamp":  rec.Timestamp,
		"topic":      rec.Topic,
		"text":       rec.Text,
		"source":     rec.Source,
		"agent":      rec.Agent,
		"confidence": rec.Confidence,
		"metadata":   rec.Metadata,
	}
}
