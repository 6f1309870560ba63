package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidStep = goerr.New("invalid plan step")
	ErrEmptyPlan   = goerr.New("plan has no steps")
)

// Step is a unit of work the coordinator can execute for a query
type Step string

const (
	StepResearch     Step = "research"
	StepAnalysis     Step = "analysis"
	StepSynthesis    Step = "synthesis"
	StepMemoryUpdate Step = "memory_update"
)

// Validate checks if the step is one the coordinator knows how to run
func (s Step) Validate() error {
	switch s {
	case StepResearch, StepAnalysis, StepSynthesis, StepMemoryUpdate:
		return nil
	default:
		return goerr.Wrap(ErrInvalidStep, "unknown step", goerr.V("step", s))
	}
}

// Plan is the ordered list of steps chosen for a query
type Plan []Step

// Has reports whether the plan includes step
func (p Plan) Has(step Step) bool {
	return slices.Contains(p, step)
}

// Validate checks the plan is non-empty and made of known steps
func (p Plan) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPlan
	}
	for _, s := range p {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// canonicalOrder is the order the coordinator executes steps in
var canonicalOrder = []Step{StepResearch, StepAnalysis, StepSynthesis, StepMemoryUpdate}

// Canonical returns the steps of p in execution order with duplicates removed.
// Unknown steps are dropped.
func (p Plan) Canonical() Plan {
	out := make(Plan, 0, len(canonicalOrder))
	for _, s := range canonicalOrder {
		if p.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
