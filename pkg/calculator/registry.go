package calculator

import (
	"sync"
	"sync/atomic"
)

// Registry holds the ordered calculator lists. Registration is rare and
// lookups are frequent and concurrent, so both lists are copy-on-write: a
// registration swaps in a new slice under the write lock while readers keep
// iterating their snapshot untouched.
//
// Calculators registered first have priority over later registrations for
// conflicting keys. Iteration order is therefore reverse registration order:
// the most recently registered calculator runs first, and earlier
// registrations are layered on top of its contributions.
type Registry struct {
	mu          sync.Mutex
	calculators atomic.Pointer[[]Calculator]
	statics     atomic.Pointer[[]Static]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.calculators.Store(&[]Calculator{})
	r.statics.Store(&[]Static{})
	return r
}

// Register installs a calculator at the front of the list, so it runs before
// every calculator registered earlier.
func (r *Registry) Register(c Calculator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.calculators.Load()
	next := make([]Calculator, 0, len(old)+1)
	next = append(next, c)
	next = append(next, old...)
	r.calculators.Store(&next)
}

// RegisterStatic installs a static calculator into both lists: wrapped in a
// subject-ignoring adapter in the general list, so subject lookups see its
// contributions too, and directly in the static-only list.
func (r *Registry) RegisterStatic(s Static) {
	r.Register(staticAdapter{s: s})

	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.statics.Load()
	next := make([]Static, 0, len(old)+1)
	next = append(next, s)
	next = append(next, old...)
	r.statics.Store(&next)
}

// Calculators returns a read-only snapshot of the general calculator list in
// iteration order. Registrations racing with the call do not affect the
// returned slice.
func (r *Registry) Calculators() []Calculator {
	snapshot := *r.calculators.Load()
	out := make([]Calculator, len(snapshot))
	copy(out, snapshot)
	return out
}

// StaticCalculators returns a read-only snapshot of the static-only list in
// iteration order.
func (r *Registry) StaticCalculators() []Static {
	snapshot := *r.statics.Load()
	out := make([]Static, len(snapshot))
	copy(out, snapshot)
	return out
}
