// Package coordinator routes queries through the research, analysis,
// synthesis and memory steps and keeps the conversation and trace of a session.
package coordinator

import (
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/huddle/pkg/agent/analysis"
	"github.com/m-mizutani/huddle/pkg/agent/research"
	"github.com/m-mizutani/huddle/pkg/memory"
	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/m-mizutani/huddle/pkg/router"
)

const actorName = "Coordinator"

// Researcher retrieves catalog documents for a query
type Researcher interface {
	Search(query string, topK int) []model.RetrievalResult
}

// Analyst ranks retrieval results and summarizes the ranking
type Analyst interface {
	Compare(items []model.RetrievalResult, metric string) *model.RankingReport
	Synthesize(report *model.RankingReport) *model.SynthesisResult
}

// MemoryStore is the similarity index findings are stored into
type MemoryStore interface {
	Add(input memory.AddInput) model.MemoryRecord
	KeywordSearch(term string, limit int) []model.MemoryRecord
	VectorSearch(query string, limit int) []model.ScoredRecord
	Len() int
}

// Recorder receives counters about coordinator activity
type Recorder interface {
	ObserveQuery(plan model.Plan)
	ObserveStep(step model.Step)
	ObserveMemoryQuery(outcome string)
	SetMemoryRecords(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuery(model.Plan)   {}
func (nopRecorder) ObserveStep(model.Step)    {}
func (nopRecorder) ObserveMemoryQuery(string) {}
func (nopRecorder) SetMemoryRecords(int)      {}

// State keeps the latest output of each agent
type State struct {
	LastResearch []model.RetrievalResult `json:"last_research,omitempty"`
	LastAnalysis *model.RankingReport    `json:"last_analysis,omitempty"`
}

// Coordinator executes query plans. One coordinator serves one session and
// serialises all of its operations.
type Coordinator struct {
	mu sync.Mutex

	researcher Researcher
	analyst    Analyst
	memory     MemoryStore
	router     router.Router
	recorder   Recorder
	now        func() time.Time

	topK      int
	memoryK   int
	metric    string
	sessionID model.SessionID

	trace        []model.TraceEntry
	conversation []model.ConversationTurn
	state        State
}

// Option is a functional option for Coordinator
type Option func(*Coordinator)

// WithRouter replaces the built-in rule router
func WithRouter(r router.Router) Option {
	return func(c *Coordinator) {
		c.router = r
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// WithClock sets the time source for trace entries and conversation turns
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithTopK sets how many documents the research step retrieves
func WithTopK(k int) Option {
	return func(c *Coordinator) {
		c.topK = k
	}
}

// WithMetric sets the metric name used by the analysis step
func WithMetric(metric string) Option {
	return func(c *Coordinator) {
		c.metric = metric
	}
}

// WithSessionID fixes the session identifier instead of generating one
func WithSessionID(id model.SessionID) Option {
	return func(c *Coordinator) {
		c.sessionID = id
	}
}

// New creates a Coordinator over the given agents and memory store
func New(researcher Researcher, analyst Analyst, store MemoryStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		researcher: researcher,
		analyst:    analyst,
		memory:     store,
		router:     router.NewRuleRouter(),
		recorder:   nopRecorder{},
		now:        time.Now,
		topK:       research.DefaultTopK,
		memoryK:    5,
		metric:     analysis.DefaultMetric,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.sessionID == "" {
		c.sessionID = model.NewSessionID()
	}

	return c
}

// SessionID returns the identifier of this coordinator's session
func (c *Coordinator) SessionID() model.SessionID {
	return c.sessionID
}

// Trace returns a snapshot of all trace entries recorded so far
func (c *Coordinator) Trace() []model.TraceEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.trace)
}

// Conversation returns a snapshot of the conversation log
func (c *Coordinator) Conversation() []model.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.conversation)
}

// State returns the latest research and analysis outputs
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) addTurn(role model.Role, text string) {
	c.conversation = append(c.conversation, model.ConversationTurn{
		Role:      role,
		Text:      text,
		Timestamp: c.now(),
	})
}
