// Package contextset provides the ordered multimap of context entries that the
// rest of the library is built on. A context entry is a (key, value) string
// pair describing one situational fact about a subject, e.g. server=lobby or
// world=nether. Keys are not unique: a set may hold world=overworld and
// world=nether at the same time.
package contextset

import (
	"sort"
	"strings"

	"github.com/permkit/permctx/pkg/errors"
)

// Pair is a single context entry.
type Pair struct {
	// Key is the context key, always stored trimmed and lower-cased
	Key string

	// Value is the context value, stored trimmed with its case preserved
	Value string
}

// Set is the read-side interface shared by the Mutable and Immutable variants.
type Set interface {
	// Contains reports whether the set holds the given entry
	Contains(key, value string) bool

	// ContainsKey reports whether the set holds any entry with the given key
	ContainsKey(key string) bool

	// Values returns all values recorded for the given key, in insertion order
	Values(key string) []string

	// Pairs returns a copy of all entries in insertion order
	Pairs() []Pair

	// Size returns the number of entries
	Size() int

	// IsEmpty reports whether the set has no entries
	IsEmpty() bool

	// Equal reports whether both sets hold the same entries, regardless of order
	Equal(other Set) bool

	// Immutable returns an immutable view of the set. Calling it on a set that
	// is already immutable returns the receiver without copying.
	Immutable() *Immutable
}

// base carries the shared pair storage and read operations.
type base struct {
	pairs []Pair
}

func (b *base) Contains(key, value string) bool {
	k := normalizeKey(key)
	v := strings.TrimSpace(value)
	for _, p := range b.pairs {
		if p.Key == k && p.Value == v {
			return true
		}
	}
	return false
}

func (b *base) ContainsKey(key string) bool {
	k := normalizeKey(key)
	for _, p := range b.pairs {
		if p.Key == k {
			return true
		}
	}
	return false
}

func (b *base) Values(key string) []string {
	k := normalizeKey(key)
	var values []string
	for _, p := range b.pairs {
		if p.Key == k {
			values = append(values, p.Value)
		}
	}
	return values
}

func (b *base) Pairs() []Pair {
	out := make([]Pair, len(b.pairs))
	copy(out, b.pairs)
	return out
}

func (b *base) Size() int {
	return len(b.pairs)
}

func (b *base) IsEmpty() bool {
	return len(b.pairs) == 0
}

// Equal compares the multiset of entries. Insertion order is deliberately not
// part of the equality contract, only of iteration.
func (b *base) Equal(other Set) bool {
	if other == nil {
		return false
	}
	otherPairs := other.Pairs()
	if len(otherPairs) != len(b.pairs) {
		return false
	}
	counts := make(map[Pair]int, len(b.pairs))
	for _, p := range b.pairs {
		counts[p]++
	}
	for _, p := range otherPairs {
		counts[p]--
		if counts[p] < 0 {
			return false
		}
	}
	return true
}

// Mutable is the builder variant of a context set, used while calculators
// accumulate entries. It is not safe for concurrent use.
type Mutable struct {
	base
}

// NewMutable creates an empty mutable context set.
func NewMutable() *Mutable {
	return &Mutable{}
}

// Add records an entry. The key is trimmed and lower-cased, the value trimmed.
// Adding an entry that is already present is a no-op. An entry with an empty
// key or value (after trimming) is rejected so that calculators cannot inject
// malformed context.
func (m *Mutable) Add(key, value string) error {
	k := normalizeKey(key)
	if k == "" {
		return errors.ErrEmptyContextKey
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return errors.ErrEmptyContextValue
	}
	if m.Contains(k, v) {
		return nil
	}
	m.pairs = append(m.pairs, Pair{Key: k, Value: v})
	return nil
}

// Remove deletes the given entry if present.
func (m *Mutable) Remove(key, value string) {
	k := normalizeKey(key)
	v := strings.TrimSpace(value)
	for i, p := range m.pairs {
		if p.Key == k && p.Value == v {
			m.pairs = append(m.pairs[:i], m.pairs[i+1:]...)
			return
		}
	}
}

// RemoveKey deletes every entry with the given key.
func (m *Mutable) RemoveKey(key string) {
	k := normalizeKey(key)
	kept := m.pairs[:0]
	for _, p := range m.pairs {
		if p.Key != k {
			kept = append(kept, p)
		}
	}
	m.pairs = kept
}

// Clone returns an independent copy of the set. The fold uses this to
// checkpoint the accumulator before handing it to a calculator.
func (m *Mutable) Clone() *Mutable {
	pairs := make([]Pair, len(m.pairs))
	copy(pairs, m.pairs)
	return &Mutable{base{pairs: pairs}}
}

// Immutable returns a frozen copy of the current entries. Further mutation of
// the receiver does not affect the returned set.
func (m *Mutable) Immutable() *Immutable {
	pairs := make([]Pair, len(m.pairs))
	copy(pairs, m.pairs)
	return &Immutable{base{pairs: pairs}}
}

// Immutable is the frozen variant of a context set. It has no mutating
// operations and is safe to share across goroutines without copying.
type Immutable struct {
	base
}

// Immutable implements Set. It returns the receiver: freezing an already
// frozen set must be free and idempotent.
func (s *Immutable) Immutable() *Immutable {
	return s
}

// MutableCopy returns a mutable copy of the set.
func (s *Immutable) MutableCopy() *Mutable {
	pairs := make([]Pair, len(s.pairs))
	copy(pairs, s.pairs)
	return &Mutable{base{pairs: pairs}}
}

// empty is the shared zero-entry immutable set.
var empty = &Immutable{}

// Empty returns the shared empty immutable context set.
func Empty() *Immutable {
	return empty
}

// Of creates an immutable context set holding a single entry.
func Of(key, value string) (*Immutable, error) {
	m := NewMutable()
	if err := m.Add(key, value); err != nil {
		return nil, err
	}
	return m.Immutable(), nil
}

// FromPairs creates an immutable context set from entries in the given order.
func FromPairs(pairs []Pair) (*Immutable, error) {
	m := NewMutable()
	for _, p := range pairs {
		if err := m.Add(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	return m.Immutable(), nil
}

// FromMap creates an immutable context set from a key to value mapping. Keys
// are added in sorted order so the iteration order is deterministic.
func FromMap(entries map[string]string) (*Immutable, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMutable()
	for _, k := range keys {
		if err := m.Add(k, entries[k]); err != nil {
			return nil, err
		}
	}
	return m.Immutable(), nil
}

// normalizeKey trims surrounding whitespace and lower-cases a context key.
// Values keep their case: world and server names are case-sensitive to the
// layers that consume them.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
