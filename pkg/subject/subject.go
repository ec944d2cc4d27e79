// Package subject defines the identity of the entity whose context and
// permissions are being resolved, typically a connected user.
package subject

import (
	"github.com/google/uuid"
)

// Subject is the entity a context lookup is performed for. Implementations
// are provided by the platform integration; the library only needs a stable
// identity for cache keying and a name for log output.
type Subject interface {
	// SubjectID returns the stable unique identifier of the subject.
	// Lookups for the same ID within the cache TTL share one resolution.
	SubjectID() uuid.UUID

	// FriendlyName returns a human readable name for log and display output.
	FriendlyName() string
}

// Simple is a plain value implementation of Subject, sufficient for tests,
// tools and platforms that have no richer player/connection type to wrap.
type Simple struct {
	// ID is the subject's unique identifier
	ID uuid.UUID

	// Name is the subject's display name
	Name string
}

// New creates a Simple subject with a fresh random identifier.
func New(name string) Simple {
	return Simple{ID: uuid.New(), Name: name}
}

// SubjectID implements Subject.
func (s Simple) SubjectID() uuid.UUID {
	return s.ID
}

// FriendlyName implements Subject.
func (s Simple) FriendlyName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID.String()
}

func (s Simple) String() string {
	return s.FriendlyName()
}
