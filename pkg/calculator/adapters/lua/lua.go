// Package lua provides context calculators backed by Lua functions loaded
// into a scripting engine. The script function receives a table describing
// the context accumulated so far and returns a table of entries to add:
// string values add a single entry, array values add one entry per element.
package lua

import (
	"context"
	"fmt"

	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/errors"
	"github.com/permkit/permctx/pkg/scripting"
	"github.com/permkit/permctx/pkg/subject"
)

// Calculator invokes a Lua function to contribute per-subject context. The
// subject under evaluation is attached to the script's context so scripts can
// reach it through the permctx.subject() API.
type Calculator struct {
	engine   scripting.Engine
	funcName string
}

// New creates a calculator backed by the named Lua function. The function
// must already be loaded into the engine.
func New(engine scripting.Engine, funcName string) (*Calculator, error) {
	if !engine.HasFunction(funcName) {
		return nil, fmt.Errorf("lua calculator: %w: %s", scripting.ErrFunctionNotFound, funcName)
	}
	return &Calculator{
		engine:   engine,
		funcName: funcName,
	}, nil
}

// Name implements calculator.Named.
func (c *Calculator) Name() string {
	return "lua:" + c.funcName
}

// Underlying implements calculator.Wrapped. The engine is the component doing
// the actual work, so diagnostics that unwrap proxies land on it.
func (c *Calculator) Underlying() any {
	return c.engine
}

// Calculate implements calculator.Calculator.
func (c *Calculator) Calculate(ctx context.Context, sub subject.Subject, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	ctx = subject.With(ctx, sub)
	if err := invoke(ctx, c.engine, c.funcName, accumulator); err != nil {
		return nil, err
	}
	return accumulator, nil
}

// StaticCalculator invokes a Lua function to contribute subject-independent
// context.
type StaticCalculator struct {
	engine   scripting.Engine
	funcName string
}

// NewStatic creates a static calculator backed by the named Lua function.
func NewStatic(engine scripting.Engine, funcName string) (*StaticCalculator, error) {
	if !engine.HasFunction(funcName) {
		return nil, fmt.Errorf("lua calculator: %w: %s", scripting.ErrFunctionNotFound, funcName)
	}
	return &StaticCalculator{
		engine:   engine,
		funcName: funcName,
	}, nil
}

// Name implements calculator.Named.
func (c *StaticCalculator) Name() string {
	return "lua:" + c.funcName
}

// Underlying implements calculator.Wrapped.
func (c *StaticCalculator) Underlying() any {
	return c.engine
}

// CalculateStatic implements calculator.Static.
func (c *StaticCalculator) CalculateStatic(ctx context.Context, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	if err := invoke(ctx, c.engine, c.funcName, accumulator); err != nil {
		return nil, err
	}
	return accumulator, nil
}

// invoke runs the Lua function against a snapshot of the accumulator and
// folds the returned entries back in.
func invoke(ctx context.Context, engine scripting.Engine, funcName string, accumulator *contextset.Mutable) error {
	result, err := engine.ExecuteFunction(ctx, funcName, snapshot(accumulator))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrLuaExecution, funcName, err)
	}
	return apply(accumulator, funcName, result)
}

// snapshot renders the accumulated context as a table the script can inspect:
// each key maps to the list of its values.
func snapshot(accumulator *contextset.Mutable) map[string]interface{} {
	out := make(map[string]interface{})
	for _, pair := range accumulator.Pairs() {
		values, _ := out[pair.Key].([]interface{})
		out[pair.Key] = append(values, pair.Value)
	}
	return out
}

// apply adds the entries from a script's return value to the accumulator.
// A nil return means the script had nothing to contribute.
func apply(accumulator *contextset.Mutable, funcName string, result interface{}) error {
	if result == nil {
		return nil
	}

	entries, ok := result.(map[string]interface{})
	if !ok {
		return fmt.Errorf("lua calculator %s: expected a table result, got %T", funcName, result)
	}

	for key, value := range entries {
		switch v := value.(type) {
		case string:
			if err := accumulator.Add(key, v); err != nil {
				return fmt.Errorf("lua calculator %s: %w", funcName, err)
			}
		case []interface{}:
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return fmt.Errorf("lua calculator %s: expected string values for key %q, got %T", funcName, key, item)
				}
				if err := accumulator.Add(key, str); err != nil {
					return fmt.Errorf("lua calculator %s: %w", funcName, err)
				}
			}
		default:
			return fmt.Errorf("lua calculator %s: expected string values for key %q, got %T", funcName, key, value)
		}
	}
	return nil
}
