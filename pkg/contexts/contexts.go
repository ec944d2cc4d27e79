// Package contexts defines the immutable descriptor handed to the permission
// resolution layer: a resolved context set combined with the policy flags
// that govern how the permission tree is traversed for it.
package contexts

import (
	"fmt"
	"strings"

	"github.com/permkit/permctx/pkg/contextset"
)

// Distinguished context keys.
const (
	// ServerKey is the context key naming the server partition
	ServerKey = "server"

	// WorldKey is the context key naming the world
	WorldKey = "world"
)

// Contexts combines a resolved context set with permission policy flags.
// Values are immutable once constructed and cheap to share across goroutines.
type Contexts struct {
	set                     *contextset.Immutable
	includeGlobalPerms      bool
	includeGlobalWorldPerms bool
	applyGlobalGroups       bool
	applyGlobalWorldGroups  bool
	op                      bool
}

// New creates a Contexts descriptor. A nil set is stored as the shared empty
// set so accessors never return nil.
func New(set *contextset.Immutable, includeGlobalPerms, includeGlobalWorldPerms, applyGlobalGroups, applyGlobalWorldGroups, op bool) *Contexts {
	if set == nil {
		set = contextset.Empty()
	}
	return &Contexts{
		set:                     set,
		includeGlobalPerms:      includeGlobalPerms,
		includeGlobalWorldPerms: includeGlobalWorldPerms,
		applyGlobalGroups:       applyGlobalGroups,
		applyGlobalWorldGroups:  applyGlobalWorldGroups,
		op:                      op,
	}
}

// ContextSet returns the resolved context set.
func (c *Contexts) ContextSet() *contextset.Immutable {
	return c.set
}

// IncludeGlobalPerms reports whether global (non-server-specific) permissions
// apply.
func (c *Contexts) IncludeGlobalPerms() bool {
	return c.includeGlobalPerms
}

// IncludeGlobalWorldPerms reports whether global (non-world-specific)
// permissions apply.
func (c *Contexts) IncludeGlobalWorldPerms() bool {
	return c.includeGlobalWorldPerms
}

// ApplyGlobalGroups reports whether global (non-server-specific) groups apply.
func (c *Contexts) ApplyGlobalGroups() bool {
	return c.applyGlobalGroups
}

// ApplyGlobalWorldGroups reports whether global (non-world-specific) groups
// apply.
func (c *Contexts) ApplyGlobalWorldGroups() bool {
	return c.applyGlobalWorldGroups
}

// Op reports whether op-granted permissions apply. This is true on every
// subject-scoped descriptor and false on every static descriptor; static
// descriptors serve as offline context-set templates, not live checks, and
// the distinction is relied upon downstream.
func (c *Contexts) Op() bool {
	return c.op
}

func (c *Contexts) String() string {
	var b strings.Builder
	b.WriteString("Contexts(set=[")
	for i, p := range c.set.Pairs() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", p.Key, p.Value)
	}
	fmt.Fprintf(&b, "], includeGlobalPerms=%t, includeGlobalWorldPerms=%t, applyGlobalGroups=%t, applyGlobalWorldGroups=%t, op=%t)",
		c.includeGlobalPerms, c.includeGlobalWorldPerms, c.applyGlobalGroups, c.applyGlobalWorldGroups, c.op)
	return b.String()
}

// Meta wraps a Contexts value with the formatting rules used when resolving
// prefix and suffix meta stacks. It is constructed fresh on each request and
// never cached: caching happens one level down, on the Contexts it wraps.
type Meta struct {
	contexts    *Contexts
	prefixRules []string
	suffixRules []string
}

// NewMeta creates a Meta descriptor. The rule slices are copied.
func NewMeta(c *Contexts, prefixRules, suffixRules []string) *Meta {
	return &Meta{
		contexts:    c,
		prefixRules: append([]string(nil), prefixRules...),
		suffixRules: append([]string(nil), suffixRules...),
	}
}

// Contexts returns the wrapped descriptor.
func (m *Meta) Contexts() *Contexts {
	return m.contexts
}

// PrefixRules returns a copy of the prefix formatting rules.
func (m *Meta) PrefixRules() []string {
	return append([]string(nil), m.prefixRules...)
}

// SuffixRules returns a copy of the suffix formatting rules.
func (m *Meta) SuffixRules() []string {
	return append([]string(nil), m.suffixRules...)
}
