// Package router classifies a query into the execution plan the coordinator runs.
package router

import (
	"context"
	"strings"

	"github.com/m-mizutani/huddle/pkg/model"
)

// Router decides which steps run for a query
type Router interface {
	Route(ctx context.Context, query string) (model.Plan, error)
}

var (
	compareKeywords = []string{"compare", "compare two", "which is better", "recommend"}
	recentKeywords  = []string{"recent papers", "recent", "papers", "recently"}
)

// shortQueryTokens is the token count below which a query is answered by research alone
const shortQueryTokens = 6

// RuleRouter is the built-in keyword router. Rules are checked in order and
// the first match wins:
//  1. comparison wording → research, analysis
//  2. recency wording → research, analysis, memory_update
//  3. fewer than six tokens → research
//  4. anything else → research, analysis
type RuleRouter struct{}

// NewRuleRouter creates a RuleRouter
func NewRuleRouter() *RuleRouter {
	return &RuleRouter{}
}

// Route never fails
func (r *RuleRouter) Route(_ context.Context, query string) (model.Plan, error) {
	return Classify(query), nil
}

// Classify applies the built-in rules to query
func Classify(query string) model.Plan {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, compareKeywords):
		return model.Plan{model.StepResearch, model.StepAnalysis}
	case containsAny(q, recentKeywords):
		return model.Plan{model.StepResearch, model.StepAnalysis, model.StepMemoryUpdate}
	case len(strings.Fields(q)) < shortQueryTokens:
		return model.Plan{model.StepResearch}
	default:
		return model.Plan{model.StepResearch, model.StepAnalysis}
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
