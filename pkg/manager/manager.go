// Package manager provides the context resolution façade: it folds registered
// calculators into context sets, derives query settings from configuration,
// and caches the results for the short window in which repeated permission
// checks for the same subject arrive.
package manager

import (
	"context"
	"strings"
	"time"

	"github.com/permkit/permctx/pkg/calculator"
	"github.com/permkit/permctx/pkg/contexts"
	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/errors"
	"github.com/permkit/permctx/pkg/subject"
)

// Source supplies the configuration values consumed when deriving query
// settings. Reads happen on every uncached resolution, so implementations
// must be cheap and non-blocking. *config.Config satisfies this interface.
type Source interface {
	IncludeGlobalPerms() bool
	IncludeGlobalWorldPerms() bool
	ApplyGlobalGroupsFlag() bool
	ApplyGlobalWorldGroupsFlag() bool
	PrefixFormattingRules() []string
	SuffixFormattingRules() []string
}

// ContextManager is the public lookup surface consumed by the
// permission-resolution layer.
type ContextManager interface {
	// ApplicableContext returns the context set applicable to the subject.
	ApplicableContext(ctx context.Context, sub subject.Subject) (*contextset.Immutable, error)

	// ApplicableContexts returns the context set applicable to the subject
	// together with the query settings derived from configuration.
	ApplicableContexts(ctx context.Context, sub subject.Subject) (*contexts.Contexts, error)

	// StaticContext returns the subject-independent context set.
	StaticContext(ctx context.Context) *contextset.Immutable

	// StaticContexts returns the subject-independent context set together
	// with the query settings derived from configuration.
	StaticContexts(ctx context.Context) *contexts.Contexts

	// StaticContextString renders the static context for display. The second
	// return value is false when the static context is empty.
	StaticContextString(ctx context.Context) (string, bool)

	// FormContexts derives subject-scoped query settings for an arbitrary set.
	FormContexts(set *contextset.Immutable) *contexts.Contexts

	// FormStaticContexts derives static query settings for an arbitrary set.
	FormStaticContexts(set *contextset.Immutable) *contexts.Contexts

	// FormMetaContexts extends query settings with meta formatting rules.
	FormMetaContexts(c *contexts.Contexts) *contexts.Meta

	// Register adds a calculator. Later registrations run earlier in folds.
	Register(calc calculator.Calculator)

	// RegisterStatic adds a static calculator, which participates in both
	// the per-subject and the static fold.
	RegisterStatic(calc calculator.Static)

	// Calculators returns the registered calculators in fold order.
	Calculators() []calculator.Calculator

	// StaticCalculators returns the registered static calculators in fold order.
	StaticCalculators() []calculator.Static

	// InvalidateCache drops the cached resolution for the subject.
	InvalidateCache(sub subject.Subject) error

	// InvalidateStaticCache drops the cached static resolution.
	InvalidateStaticCache()
}

// Config contains the cache tuning for a Manager.
type Config struct {
	// CacheTTL is how long a resolution stays valid. The window only needs
	// to cover a burst of permission checks triggered by a single event.
	CacheTTL time.Duration

	// MaxSubjects bounds the number of per-subject cache entries.
	MaxSubjects int
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		CacheTTL:    50 * time.Millisecond,
		MaxSubjects: 1024,
	}
}

// Manager is the standard ContextManager implementation.
type Manager struct {
	registry *calculator.Registry
	source   Source
	subjects *subjectCache
	static   *staticCache
}

var _ ContextManager = (*Manager)(nil)

// New creates a Manager reading query settings from source. A nil registry
// gets a fresh empty one.
func New(registry *calculator.Registry, source Source, config Config) (*Manager, error) {
	if registry == nil {
		registry = calculator.NewRegistry()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}
	if config.MaxSubjects <= 0 {
		config.MaxSubjects = DefaultConfig().MaxSubjects
	}

	subjects, err := newSubjectCache(config.MaxSubjects, config.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &Manager{
		registry: registry,
		source:   source,
		subjects: subjects,
		static:   newStaticCache(config.CacheTTL),
	}, nil
}

// ApplicableContext implements ContextManager.
func (m *Manager) ApplicableContext(ctx context.Context, sub subject.Subject) (*contextset.Immutable, error) {
	result, err := m.ApplicableContexts(ctx, sub)
	if err != nil {
		return nil, err
	}
	return result.ContextSet(), nil
}

// ApplicableContexts implements ContextManager.
func (m *Manager) ApplicableContexts(ctx context.Context, sub subject.Subject) (*contexts.Contexts, error) {
	if sub == nil {
		return nil, errors.ErrNilSubject
	}
	result := m.subjects.get(sub.SubjectID(), func() *contexts.Contexts {
		return m.FormContexts(m.resolveSubject(ctx, sub))
	})
	return result, nil
}

// StaticContext implements ContextManager.
func (m *Manager) StaticContext(ctx context.Context) *contextset.Immutable {
	return m.StaticContexts(ctx).ContextSet()
}

// StaticContexts implements ContextManager.
func (m *Manager) StaticContexts(ctx context.Context) *contexts.Contexts {
	return m.static.get(func() *contexts.Contexts {
		return m.FormStaticContexts(m.resolveStatic(ctx))
	})
}

// StaticContextString implements ContextManager. When every entry uses the
// server key the values are rendered bare; a single foreign key switches the
// whole rendering to key=value form.
func (m *Manager) StaticContextString(ctx context.Context) (string, bool) {
	set := m.StaticContext(ctx)
	if set.IsEmpty() {
		return "", false
	}

	pairs := set.Pairs()
	serverOnly := true
	for _, pair := range pairs {
		if pair.Key != contexts.ServerKey {
			serverOnly = false
			break
		}
	}

	parts := make([]string, len(pairs))
	for i, pair := range pairs {
		if serverOnly {
			parts[i] = pair.Value
		} else {
			parts[i] = pair.Key + "=" + pair.Value
		}
	}
	return strings.Join(parts, ";"), true
}

// FormContexts implements ContextManager. Configuration is read at call time,
// so flag changes show up in the next uncached resolution.
func (m *Manager) FormContexts(set *contextset.Immutable) *contexts.Contexts {
	return contexts.New(set,
		m.source.IncludeGlobalPerms(),
		m.source.IncludeGlobalWorldPerms(),
		m.source.ApplyGlobalGroupsFlag(),
		m.source.ApplyGlobalWorldGroupsFlag(),
		true,
	)
}

// FormStaticContexts implements ContextManager. Identical to FormContexts
// except the op flag: no subject exists on this path to hold op status.
func (m *Manager) FormStaticContexts(set *contextset.Immutable) *contexts.Contexts {
	return contexts.New(set,
		m.source.IncludeGlobalPerms(),
		m.source.IncludeGlobalWorldPerms(),
		m.source.ApplyGlobalGroupsFlag(),
		m.source.ApplyGlobalWorldGroupsFlag(),
		false,
	)
}

// FormMetaContexts implements ContextManager.
func (m *Manager) FormMetaContexts(c *contexts.Contexts) *contexts.Meta {
	return contexts.NewMeta(c,
		m.source.PrefixFormattingRules(),
		m.source.SuffixFormattingRules(),
	)
}

// Register implements ContextManager.
func (m *Manager) Register(calc calculator.Calculator) {
	m.registry.Register(calc)
}

// RegisterStatic implements ContextManager.
func (m *Manager) RegisterStatic(calc calculator.Static) {
	m.registry.RegisterStatic(calc)
}

// Calculators implements ContextManager.
func (m *Manager) Calculators() []calculator.Calculator {
	return m.registry.Calculators()
}

// StaticCalculators implements ContextManager.
func (m *Manager) StaticCalculators() []calculator.Static {
	return m.registry.StaticCalculators()
}

// InvalidateCache implements ContextManager.
func (m *Manager) InvalidateCache(sub subject.Subject) error {
	if sub == nil {
		return errors.ErrNilSubject
	}
	m.subjects.invalidate(sub.SubjectID())
	return nil
}

// InvalidateStaticCache implements ContextManager.
func (m *Manager) InvalidateStaticCache() {
	m.static.invalidate()
}

// PurgeCaches drops every cached resolution, subject and static alike.
func (m *Manager) PurgeCaches() {
	m.subjects.purge()
	m.static.invalidate()
}
