package router

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/orbita/internal/profile"
)

// Rule is a compiled routing expression.
type Rule struct {
	Route   Route
	Expr    string
	program cel.Program
}

// RuleSet evaluates CEL expressions over the lower-cased message (input)
// and the stored user name (name). Rules are tried in order.
type RuleSet struct {
	rules []*Rule
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("input", cel.StringType),
		cel.Variable("name", cel.StringType),
	)
}

// CompileRules builds a RuleSet. An expression that fails to compile or
// does not evaluate to bool is rejected.
func CompileRules(rules []profile.RouterRule) (*RuleSet, error) {
	rs := &RuleSet{}
	if len(rules) == 0 {
		return rs, nil
	}

	env, err := newRuleEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rule environment")
	}

	for i, r := range rules {
		route := Route(strings.ToLower(strings.TrimSpace(r.Route)))
		if !route.Valid() {
			return nil, errors.Errorf("rule %d: unknown route %q", i, r.Route)
		}
		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, errors.Wrapf(iss.Err(), "rule %d: failed to compile %q", i, r.Expr)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("rule %d: expression %q must return bool, got %s", i, r.Expr, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d: failed to build program", i)
		}
		rs.rules = append(rs.rules, &Rule{Route: route, Expr: r.Expr, program: program})
	}
	return rs, nil
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Match returns the route of the first rule that evaluates to true.
// Evaluation errors are logged and the rule is skipped.
func (rs *RuleSet) Match(input, name string) (Route, bool) {
	if rs.Len() == 0 {
		return "", false
	}
	vars := map[string]any{
		"input": strings.ToLower(strings.TrimSpace(input)),
		"name":  name,
	}
	for _, r := range rs.rules {
		out, _, err := r.program.Eval(vars)
		if err != nil {
			slog.Warn("router rule evaluation failed", "expr", r.Expr, "error", err)
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			return r.Route, true
		}
	}
	return "", false
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s <- %s", r.Route, r.Expr)
}
