// Package calculator defines the pluggable units that contribute context
// entries for a subject, and the registry they are installed into. Calculators
// are registered by platform integration code, usually at startup, and are
// invoked synchronously during every cache-miss lookup.
package calculator

import (
	"context"
	"fmt"

	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/subject"
)

// Calculator contributes context entries for a subject. Implementations
// receive the accumulator built up by previously invoked calculators and
// return the set to continue the fold with - usually the same accumulator
// after adding entries, but a replacement set is permitted.
//
// Returning a nil set with a nil error is a contract violation and is treated
// exactly like returning an error: the contribution is discarded and the fold
// continues. Calculators must be fast and free of I/O; a slow calculator
// stalls every caller that misses the cache.
type Calculator interface {
	Calculate(ctx context.Context, sub subject.Subject, accumulator *contextset.Mutable) (*contextset.Mutable, error)
}

// Static is the subject-independent variant of Calculator. Static calculators
// describe server-wide facts and additionally feed the static-only pipeline
// used where no subject is available.
type Static interface {
	CalculateStatic(ctx context.Context, accumulator *contextset.Mutable) (*contextset.Mutable, error)
}

// Wrapped is implemented by delegating adapters. Failure logs unwrap one
// layer through it so the real implementation is named, not the adapter.
type Wrapped interface {
	Underlying() any
}

// Named is implemented by calculators that can report their own identity,
// for example a script-backed calculator naming its script.
type Named interface {
	Name() string
}

// Name resolves the identity of a calculator for log output. A calculator's
// own name always wins: an adapter that is both Named and Wrapped delegates
// its work but not its identity. Only a nameless delegating adapter is
// unwrapped one layer, and the concrete type name is the fallback.
func Name(c any) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	if w, ok := c.(Wrapped); ok {
		c = w.Underlying()
		if n, ok := c.(Named); ok {
			return n.Name()
		}
	}
	return fmt.Sprintf("%T", c)
}

// Func adapts a plain function to the Calculator interface.
type Func func(ctx context.Context, sub subject.Subject, accumulator *contextset.Mutable) (*contextset.Mutable, error)

// Calculate implements Calculator.
func (f Func) Calculate(ctx context.Context, sub subject.Subject, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	return f(ctx, sub, accumulator)
}

// StaticFunc adapts a plain function to the Static interface.
type StaticFunc func(ctx context.Context, accumulator *contextset.Mutable) (*contextset.Mutable, error)

// CalculateStatic implements Static.
func (f StaticFunc) CalculateStatic(ctx context.Context, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	return f(ctx, accumulator)
}

// staticAdapter lets a Static calculator participate in subject-scoped folds
// by ignoring the subject. It is the delegating adapter the Wrapped unwrap
// exists for.
type staticAdapter struct {
	s Static
}

func (a staticAdapter) Calculate(ctx context.Context, _ subject.Subject, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	return a.s.CalculateStatic(ctx, accumulator)
}

// Underlying implements Wrapped.
func (a staticAdapter) Underlying() any {
	return a.s
}
