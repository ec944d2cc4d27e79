package subject

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey int

const (
	// subjectContextKey is the key for storing a Subject in a context.Context
	subjectContextKey contextKey = iota
)

// With adds a Subject to a context.Context. The manager does this before
// running calculators, so helpers below the fold (for example the scripting
// API) can see which subject is being evaluated.
func With(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// FromContext retrieves the Subject from a context.Context.
// If no Subject is found, it returns nil and false.
func FromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(subjectContextKey).(Subject)
	return s, ok
}
