// Package static provides a context calculator that contributes a fixed set
// of context entries, typically sourced from configuration. The server name
// and any configured key/value entries apply to every query, so the calculator
// participates in both the per-subject and the static path.
package static

import (
	"context"
	"sort"

	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/contexts"
)

// Calculator contributes a configured server name and fixed entries.
type Calculator struct {
	server  string
	entries map[string]string
}

// New creates a static calculator. An empty server name contributes no server
// entry; entries may be nil.
func New(server string, entries map[string]string) *Calculator {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Calculator{
		server:  server,
		entries: copied,
	}
}

// Name implements calculator.Named.
func (c *Calculator) Name() string {
	return "static"
}

// CalculateStatic implements calculator.Static. Entries are added in sorted
// key order so the set's iteration order, and any rendering derived from it,
// is stable across folds.
func (c *Calculator) CalculateStatic(_ context.Context, acc *contextset.Mutable) (*contextset.Mutable, error) {
	if c.server != "" {
		if err := acc.Add(contexts.ServerKey, c.server); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := acc.Add(key, c.entries[key]); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
