package taxi

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled CEL predicate over the string variable "url". The
// default configuration uses url.contains("yellow") so only yellow tripdata
// files are ingested; green and FHV files use a different CSV schema.
type Filter struct {
	expr string
	prog cel.Program
}

func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(cel.Variable("url", cel.StringType))
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

func (f *Filter) Match(url string) (bool, error) {
	out, _, err := f.prog.Eval(map[string]any{"url": url})
	if err != nil {
		return false, fmt.Errorf("eval filter %q: %w", f.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.expr, out.Value())
	}
	return b, nil
}

// Apply returns the urls matching the predicate, preserving input order.
func (f *Filter) Apply(urls []string) ([]string, error) {
	var matched []string
	for _, u := range urls {
		ok, err := f.Match(u)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, u)
		}
	}
	return matched, nil
}
