// Package scenario runs the scripted demo conversation against a coordinator
// and writes each outcome as indented JSON.
package scenario

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/memory"
	"github.com/m-mizutani/huddle/pkg/usecase/coordinator"
	"github.com/m-mizutani/huddle/pkg/utils/logging"
)

const (
	SimpleQuery        = "What are the main types of neural networks?"
	ComplexQuery       = "Research transformer architectures, analyze their computational efficiency, and summarize key trade-offs."
	MemoryQuestion     = "What did we discuss about neural networks earlier?"
	MemoryLookup       = "neural networks"
	MultiStepQuery     = "Find recent papers on reinforcement learning, analyze their methodologies, and identify common challenges."
	CollaborativeQuery = "Compare Adam and SGD and recommend which is better for fast convergence."
)

// Output file names, in execution order
const (
	SimpleFile        = "simple_query.txt"
	ComplexFile       = "complex_query.txt"
	MemoryFile        = "memory_test.txt"
	MultiStepFile     = "multi_step.txt"
	CollaborativeFile = "collaborative.txt"
)

// Outcome is the result of one scenario
type Outcome struct {
	File   string
	Query  string
	Result any
	Path   string
}

// Runner executes the demo scenarios
type Runner struct {
	coord     *coordinator.Coordinator
	outputDir string
	progress  func(file string)
}

// Option is a functional option for Runner
type Option func(*Runner)

// WithOutputDir makes the runner write each outcome into dir. Without it
// nothing is written.
func WithOutputDir(dir string) Option {
	return func(r *Runner) {
		r.outputDir = dir
	}
}

// WithProgress sets a callback invoked before each scenario starts
func WithProgress(fn func(file string)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// New creates a Runner driving coord
func New(coord *coordinator.Coordinator, opts ...Option) *Runner {
	r := &Runner{
		coord:    coord,
		progress: func(string) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the five scenarios in order. The memory scenario first stores
// the synthesis of the simple query, when one was produced, under the topic
// "neural networks" and then looks that topic up.
func (r *Runner) Run(ctx context.Context) ([]Outcome, error) {
	if r.outputDir != "" {
		if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create output directory", goerr.V("dir", r.outputDir))
		}
	}

	var outcomes []Outcome

	r.progress(SimpleFile)
	simple, err := r.coord.HandleQuery(ctx, SimpleQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "simple query failed")
	}
	if outcomes, err = r.emit(ctx, outcomes, SimpleFile, SimpleQuery, simple); err != nil {
		return nil, err
	}

	r.progress(ComplexFile)
	complexResult, err := r.coord.HandleQuery(ctx, ComplexQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "complex query failed")
	}
	if outcomes, err = r.emit(ctx, outcomes, ComplexFile, ComplexQuery, complexResult); err != nil {
		return nil, err
	}

	r.progress(MemoryFile)
	if syn := simple.Results.Synthesis; syn != nil {
		r.coord.StoreFinding(ctx, memory.AddInput{
			Topic:      MemoryLookup,
			Text:       syn.Text,
			Source:     "auto",
			Agent:      "Coordinator",
			Confidence: syn.Confidence,
		})
	}
	answer := r.coord.AskMemory(ctx, MemoryLookup)
	if outcomes, err = r.emit(ctx, outcomes, MemoryFile, MemoryQuestion, answer); err != nil {
		return nil, err
	}

	r.progress(MultiStepFile)
	multi, err := r.coord.HandleQuery(ctx, MultiStepQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "multi-step query failed")
	}
	if outcomes, err = r.emit(ctx, outcomes, MultiStepFile, MultiStepQuery, multi); err != nil {
		return nil, err
	}

	r.progress(CollaborativeFile)
	collab, err := r.coord.HandleQuery(ctx, CollaborativeQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "collaborative query failed")
	}
	if outcomes, err = r.emit(ctx, outcomes, CollaborativeFile, CollaborativeQuery, collab); err != nil {
		return nil, err
	}

	return outcomes, nil
}

func (r *Runner) emit(ctx context.Context, outcomes []Outcome, file, query string, result any) ([]Outcome, error) {
	out := Outcome{File: file, Query: query, Result: result}

	if r.outputDir != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal scenario result", goerr.V("file", file))
		}

		out.Path = filepath.Join(r.outputDir, file)
		if err := os.WriteFile(out.Path, data, 0o644); err != nil {
			return nil, goerr.Wrap(err, "failed to write scenario result", goerr.V("path", out.Path))
		}
		logging.From(ctx).Info("wrote scenario output", "path", out.Path)
	}

	return append(outcomes, out), nil
}
