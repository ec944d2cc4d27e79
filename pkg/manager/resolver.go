package manager

import (
	"context"
	"fmt"

	"github.com/permkit/permctx/pkg/calculator"
	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/errors"
	"github.com/permkit/permctx/pkg/log"
	"github.com/permkit/permctx/pkg/subject"
)

// resolveSubject folds every registered calculator over a fresh accumulator
// for the given subject. Calculators run most-recently-registered first. A
// calculator that fails is logged and skipped; the accumulator keeps exactly
// the state it had before that calculator ran.
func (m *Manager) resolveSubject(ctx context.Context, sub subject.Subject) *contextset.Immutable {
	ctx = subject.With(ctx, sub)

	acc := contextset.NewMutable()
	for _, calc := range m.registry.Calculators() {
		result, err := invokeCalculator(ctx, calc, sub, acc.Clone())
		if err != nil {
			log.WarnContext(ctx, "An error occurred whilst calculating the context of subject",
				"calculator", calculator.Name(calc),
				"subject", sub.FriendlyName(),
				"error", err,
			)
			continue
		}
		acc = result
	}
	return acc.Immutable()
}

// resolveStatic is the subject-independent counterpart of resolveSubject,
// folding only the static calculators.
func (m *Manager) resolveStatic(ctx context.Context) *contextset.Immutable {
	acc := contextset.NewMutable()
	for _, calc := range m.registry.StaticCalculators() {
		result, err := invokeStaticCalculator(ctx, calc, acc.Clone())
		if err != nil {
			log.WarnContext(ctx, "An error occurred whilst calculating the context of subject",
				"calculator", calculator.Name(calc),
				"subject", "static",
				"error", err,
			)
			continue
		}
		acc = result
	}
	return acc.Immutable()
}

// invokeCalculator runs one calculator against a checkpoint copy of the
// accumulator, converting panics and nil results into errors so the fold can
// stay fail-soft.
func invokeCalculator(ctx context.Context, calc calculator.Calculator, sub subject.Subject, acc *contextset.Mutable) (result *contextset.Mutable, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("calculator panicked: %v", r)
		}
	}()

	result, err = calc.Calculate(ctx, sub, acc)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.ErrNilContextSet
	}
	return result, nil
}

func invokeStaticCalculator(ctx context.Context, calc calculator.Static, acc *contextset.Mutable) (result *contextset.Mutable, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("calculator panicked: %v", r)
		}
	}()

	result, err = calc.CalculateStatic(ctx, acc)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.ErrNilContextSet
	}
	return result, nil
}
