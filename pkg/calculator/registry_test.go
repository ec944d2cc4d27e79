package calculator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/subject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// namedCalculator is a no-op calculator with an identity for ordering checks.
type namedCalculator struct {
	name string
}

func (n namedCalculator) Calculate(_ context.Context, _ subject.Subject, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	return accumulator, nil
}

func (n namedCalculator) Name() string {
	return n.name
}

// namedStatic is the static counterpart of namedCalculator.
type namedStatic struct {
	name string
}

func (n namedStatic) CalculateStatic(_ context.Context, accumulator *contextset.Mutable) (*contextset.Mutable, error) {
	return accumulator, nil
}

func (n namedStatic) Name() string {
	return n.name
}

func TestRegistry_ReverseRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(namedCalculator{name: "c1"})
	r.Register(namedCalculator{name: "c2"})
	r.Register(namedCalculator{name: "c3"})

	var order []string
	for _, c := range r.Calculators() {
		order = append(order, Name(c))
	}
	assert.Equal(t, []string{"c3", "c2", "c1"}, order)
}

func TestRegistry_RegisterStatic_BothLists(t *testing.T) {
	r := NewRegistry()
	r.Register(namedCalculator{name: "subject-only"})
	r.RegisterStatic(namedStatic{name: "static"})

	calcs := r.Calculators()
	require.Len(t, calcs, 2)
	// The static calculator was registered last, so it runs first
	assert.Equal(t, "static", Name(calcs[0]))
	assert.Equal(t, "subject-only", Name(calcs[1]))

	statics := r.StaticCalculators()
	require.Len(t, statics, 1)
	assert.Equal(t, "static", Name(statics[0]))
}

func TestRegistry_StaticAdapter_IgnoresSubject(t *testing.T) {
	r := NewRegistry()
	r.RegisterStatic(StaticFunc(func(_ context.Context, acc *contextset.Mutable) (*contextset.Mutable, error) {
		if err := acc.Add("server", "lobby"); err != nil {
			return nil, err
		}
		return acc, nil
	}))

	calcs := r.Calculators()
	require.Len(t, calcs, 1)

	acc, err := calcs[0].Calculate(context.Background(), nil, contextset.NewMutable())
	require.NoError(t, err)
	assert.True(t, acc.Contains("server", "lobby"))
}

func TestRegistry_SnapshotUnaffectedByRegistration(t *testing.T) {
	r := NewRegistry()
	r.Register(namedCalculator{name: "c1"})

	snapshot := r.Calculators()
	r.Register(namedCalculator{name: "c2"})

	require.Len(t, snapshot, 1)
	assert.Equal(t, "c1", Name(snapshot[0]))
	assert.Len(t, r.Calculators(), 2)
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register(namedCalculator{name: fmt.Sprintf("c%d", i)})
			// Interleaved reads must observe a consistent snapshot
			for _, c := range r.Calculators() {
				_ = Name(c)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Calculators(), 50)
}

// namedWrapper delegates to a shared engine but carries its own identity,
// like a script-backed calculator.
type namedWrapper struct {
	name  string
	inner any
}

func (n namedWrapper) Name() string    { return n.name }
func (n namedWrapper) Underlying() any { return n.inner }

func TestName_Unwrapping(t *testing.T) {
	// A wrapped static calculator reports the underlying implementation
	wrapped := staticAdapter{s: namedStatic{name: "real"}}
	assert.Equal(t, "real", Name(wrapped))

	// An adapter with its own name keeps it even when it wraps something
	// else; two adapters sharing one engine must stay distinguishable.
	engine := struct{}{}
	assert.Equal(t, "scripted:a", Name(namedWrapper{name: "scripted:a", inner: engine}))
	assert.Equal(t, "scripted:b", Name(namedWrapper{name: "scripted:b", inner: engine}))

	// An explicit name wins over the type name
	assert.Equal(t, "c1", Name(namedCalculator{name: "c1"}))

	// Fallback is the concrete type
	f := Func(func(_ context.Context, _ subject.Subject, acc *contextset.Mutable) (*contextset.Mutable, error) {
		return acc, nil
	})
	assert.Equal(t, "calculator.Func", Name(f))
}
