package config

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

const FilterTypeEmbed = "FILTER_TYPE_EMBED"

type Filter struct {
	Type      string
	Condition string

	once       sync.Once
	program    *vm.Program
	compileErr error
}

// FilterEmbedEnv is the environment an embed filter is evaluated in.
// Embed attributes are converted to this environment before evaluating
// the filter.
//
// The `expr` tag is used to map the field to the corresponding option.
// Without it, all variables start with capitalized letters.
type FilterEmbedEnv struct {
	Resource   string            `expr:"resource"`
	Kind       string            `expr:"kind"`
	URL        string            `expr:"url"`
	Provider   string            `expr:"provider"`
	Valid      bool              `expr:"valid"`
	Attributes map[string]string `expr:"attributes"`
}

// Compile checks the condition. Evaluate compiles lazily, so calling it
// is only needed to report errors early.
func (f *Filter) Compile() error {
	f.once.Do(func() {
		program, err := expr.Compile(
			f.Condition,
			expr.Env(FilterEmbedEnv{}),
			expr.AsBool(),
		)
		f.program, f.compileErr = program, errors.Wrap(err, "failed to compile filter program")
	})
	return f.compileErr
}

func (f *Filter) Evaluate(env FilterEmbedEnv) (bool, error) {
	if err := f.Compile(); err != nil {
		return false, err
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, errors.Wrap(err, "failed to run filter program")
	}
	return result.(bool), nil
}

// Match reports whether env passes all filters.
func Match(filters []*Filter, env FilterEmbedEnv) (bool, error) {
	for _, f := range filters {
		ok, err := f.Evaluate(env)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
