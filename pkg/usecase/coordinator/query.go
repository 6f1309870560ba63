package coordinator

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/memory"
	"github.com/m-mizutani/huddle/pkg/model"
)

const (
	// ResearchOnlyReply is the assistant turn recorded when no synthesis was produced
	ResearchOnlyReply = "Here are the research results."

	fallbackFindingText       = "research results"
	fallbackFindingConfidence = 0.5
	findingSource             = "coordinator"
)

// StepResults holds the output of every step that ran for a query
type StepResults struct {
	Research     []model.RetrievalResult
	Analysis     *model.RankingReport
	Synthesis    *model.SynthesisResult
	MemoryRecord *model.MemoryRecord

	researched bool
}

// HasResearch reports whether the research step ran. An empty Research slice
// alone does not tell that apart from a skipped step.
func (r StepResults) HasResearch() bool {
	return r.researched
}

// MarshalJSON emits only the keys of steps that ran
func (r StepResults) MarshalJSON() ([]byte, error) {
	type view struct {
		Research     *[]model.RetrievalResult `json:"research,omitempty"`
		Analysis     *model.RankingReport     `json:"analysis,omitempty"`
		Synthesis    *model.SynthesisResult   `json:"synthesis,omitempty"`
		MemoryRecord *model.MemoryRecord      `json:"memory_record,omitempty"`
	}

	v := view{
		Analysis:     r.Analysis,
		Synthesis:    r.Synthesis,
		MemoryRecord: r.MemoryRecord,
	}
	if r.researched {
		items := r.Research
		if items == nil {
			items = []model.RetrievalResult{}
		}
		v.Research = &items
	}
	return json.Marshal(v)
}

// QueryResult is the outcome of HandleQuery
type QueryResult struct {
	Query   string             `json:"query"`
	Plan    model.Plan         `json:"plan"`
	Results StepResults        `json:"results"`
	Trace   []model.TraceEntry `json:"trace"`
}

// HandleQuery classifies query, runs the resulting plan and returns the step
// outputs together with the session trace.
func (c *Coordinator) HandleQuery(ctx context.Context, query string) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plan, err := c.router.Route(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to route query", goerr.V("query", query))
	}
	// Steps always run in canonical order
	plan = plan.Canonical()
	c.record(ctx, "complexity_analysis", map[string]any{
		"query": query,
		"plan":  plan,
	})
	c.recorder.ObserveQuery(plan)

	c.addTurn(model.RoleUser, query)

	var results StepResults

	if plan.Has(model.StepResearch) {
		c.record(ctx, "call_research", map[string]any{"query": query})
		results.Research = c.researcher.Search(query, c.topK)
		results.researched = true
		c.state.LastResearch = results.Research
		c.recorder.ObserveStep(model.StepResearch)
	}

	if plan.Has(model.StepAnalysis) {
		c.record(ctx, "call_analysis", map[string]any{"items_count": len(results.Research)})
		results.Analysis = c.analyst.Compare(results.Research, c.metric)
		c.state.LastAnalysis = results.Analysis
		c.recorder.ObserveStep(model.StepAnalysis)
	}

	// Synthesis follows analysis even when the plan does not name it
	if plan.Has(model.StepAnalysis) || plan.Has(model.StepSynthesis) {
		c.record(ctx, "synthesize", map[string]any{})
		results.Synthesis = c.analyst.Synthesize(results.Analysis)
		c.recorder.ObserveStep(model.StepSynthesis)
	}

	if plan.Has(model.StepMemoryUpdate) {
		input := memory.AddInput{
			Topic:      query,
			Text:       fallbackFindingText,
			Source:     findingSource,
			Agent:      actorName,
			Confidence: fallbackFindingConfidence,
		}
		if results.Synthesis != nil {
			input.Text = results.Synthesis.Text
			input.Confidence = results.Synthesis.Confidence
		}

		rec := c.memory.Add(input)
		c.record(ctx, "memory_store", recordPayload(rec))
		c.recorder.ObserveStep(model.StepMemoryUpdate)
		c.recorder.SetMemoryRecords(c.memory.Len())
		results.MemoryRecord = &rec
	}

	reply := ResearchOnlyReply
	if results.Synthesis != nil {
		reply = results.Synthesis.Text
	}
	c.addTurn(model.RoleAssistant, reply)

	return &QueryResult{
		Query:   query,
		Plan:    plan,
		Results: results,
		Trace:   c.snapshotTrace(),
	}, nil
}
