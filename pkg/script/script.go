// Package script evaluates the boolean expressions used by `require script`,
// `ignore script` and `require key <name> <check>` conditions.
package script

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator runs rule-language expressions against an event environment.
// Implementations must be safe for concurrent use.
type Evaluator interface {
	// EvalBool compiles and runs src, expecting a boolean result. Undefined
	// variables resolve to nil rather than failing compilation, since rule
	// authors routinely probe optional context fields.
	EvalBool(src string, env map[string]any) (bool, error)
}

// ExprEvaluator is an Evaluator backed by expr-lang with a compiled-program
// cache keyed by source text.
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEvaluator creates an evaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

// EvalBool implements Evaluator.
func (e *ExprEvaluator) EvalBool(src string, env map[string]any) (bool, error) {
	program, err := e.compile(src)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to run expression %q: %w", src, err)
	}

	value, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", src, result)
	}
	return value, nil
}

func (e *ExprEvaluator) compile(src string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[src]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(src,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", src, err)
	}

	e.mu.Lock()
	e.cache[src] = program
	e.mu.Unlock()
	return program, nil
}
