package router

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/m-mizutani/huddle/pkg/utils/logging"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// DefaultPolicy is a Rego module equivalent to RuleRouter. It is a starting
// point for custom routing policies.
//
//go:embed policy/route.rego
var DefaultPolicy string

const policyQuery = "data.route.plan"

var (
	ErrNoPolicy    = goerr.New("no routing policy found")
	ErrNoPlan      = goerr.New("routing policy produced no plan")
	ErrInvalidPlan = goerr.New("routing policy produced an invalid plan")
)

// PolicyRouter routes queries by evaluating data.route.plan of Rego modules.
// The policy input is:
//
//	{"query": "...", "query_lower": "...", "tokens": ["..."], "token_count": 3}
type PolicyRouter struct {
	query *rego.PreparedEvalQuery
}

// regoPrintHook forwards Rego print() statements to the context logger
type regoPrintHook struct {
	ctx context.Context
}

func (h *regoPrintHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// NewPolicyRouter loads every .rego file in policyDir
func NewPolicyRouter(ctx context.Context, policyDir string) (*PolicyRouter, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", policyDir))
	}
	if len(files) == 0 {
		return nil, goerr.Wrap(ErrNoPolicy, "policy directory has no .rego files", goerr.V("dir", policyDir))
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules[file] = string(data)
	}

	return NewPolicyRouterFromModules(ctx, modules)
}

// NewPolicyRouterFromModules prepares the routing query over modules keyed by file name
func NewPolicyRouterFromModules(ctx context.Context, modules map[string]string) (*PolicyRouter, error) {
	if len(modules) == 0 {
		return nil, ErrNoPolicy
	}

	options := make([]func(*rego.Rego), 0, len(modules)+2)
	options = append(options, rego.Query(policyQuery), rego.EnablePrintStatements(true))
	for name, src := range modules {
		options = append(options, rego.Module(name, src))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare routing policy", goerr.V("query", policyQuery))
	}

	return &PolicyRouter{query: &prepared}, nil
}

// Route evaluates the policy for query. The plan is returned in execution
// order with repeated steps removed.
func (r *PolicyRouter) Route(ctx context.Context, query string) (model.Plan, error) {
	tokens := strings.Fields(query)
	input := map[string]any{
		"query":       query,
		"query_lower": strings.ToLower(query),
		"tokens":      tokens,
		"token_count": len(tokens),
	}

	rs, err := r.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{ctx: ctx}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate routing policy")
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, goerr.Wrap(ErrNoPlan, "routing policy is undefined for query", goerr.V("query", query))
	}

	raw, ok := rs[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, goerr.Wrap(ErrInvalidPlan, "plan is not an array", goerr.V("value", rs[0].Expressions[0].Value))
	}

	plan := make(model.Plan, 0, len(raw))
	for _, v := range raw {
		name, ok := v.(string)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidPlan, "plan step is not a string", goerr.V("value", v))
		}
		plan = append(plan, model.Step(name))
	}
	if err := plan.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidPlan, "plan failed validation", goerr.V("plan", plan), goerr.V("cause", err.Error()))
	}

	return plan.Canonical(), nil
}
