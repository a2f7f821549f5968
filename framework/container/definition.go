package container

import (
	"errors"
	"fmt"
)

// ── Scopes ────────────────────────────────────────────────────────────────────

// Scope is the caching policy of a definition.
type Scope string

const (
	// ScopeSingleton keeps one instance for the lifetime of the container.
	ScopeSingleton Scope = "SINGLETON"
	// ScopePrototype creates a new instance on every resolution.
	ScopePrototype Scope = "PROTOTYPE"
	// ScopeRequest keeps one instance per active request context.
	ScopeRequest Scope = "REQUEST"
)

// ── Definition ────────────────────────────────────────────────────────────────

// Factory builds the concrete value for a definition. It may call back into
// the container to resolve its own dependencies.
type Factory func(c *Container) (any, error)

// Condition gates a definition: it is only a resolution candidate while all
// of its conditions evaluate true.
type Condition func(c *Container) bool

type namedCondition struct {
	name string
	test Condition
}

// Definition validation errors.
var (
	ErrEmptyName         = errors.New("container: definition name is empty")
	ErrEmptySource       = errors.New("container: definition source is empty")
	ErrNilFactory        = errors.New("container: definition factory is nil")
	ErrUnknownScope      = errors.New("container: unknown scope")
	ErrEagerRequestScope = errors.New("container: request-scoped definition cannot be eager")
)

// Definition is an immutable recipe for producing one named instance.
// All mutation happens through options at construction time; afterwards the
// value only exposes read accessors.
type Definition struct {
	name         string
	factory      Factory
	scope        Scope
	source       string
	eager        bool
	optional     bool
	conditions   []namedCondition
	dependencies []string
	tags         map[string]string
}

// Option configures a Definition under construction.
type Option func(*Definition)

// WithScope sets the caching policy (default ScopeSingleton).
func WithScope(s Scope) Option {
	return func(d *Definition) { d.scope = s }
}

// WithSource sets the human-readable provenance string used in diagnostics
// (default "runtime").
func WithSource(source string) Option {
	return func(d *Definition) { d.source = source }
}

// Eager marks the definition for instantiation during Refresh rather than
// on first use.
func Eager() Option {
	return func(d *Definition) { d.eager = true }
}

// Optional marks the definition as tolerated-absent: TryGet soft failures
// on it are not logged as anomalies.
func Optional() Option {
	return func(d *Definition) { d.optional = true }
}

// WithCondition appends a named predicate. A definition is a candidate only
// while every condition evaluates true; evaluation short-circuits on the
// first failure.
func WithCondition(name string, cond Condition) Option {
	return func(d *Definition) {
		d.conditions = append(d.conditions, namedCondition{name: name, test: cond})
	}
}

// WithDependencies declares the names this definition depends on. The list
// drives eager-instantiation ordering and the pre-flight cycle check at
// Refresh; it is independent of what the factory actually resolves.
func WithDependencies(names ...string) Option {
	return func(d *Definition) {
		d.dependencies = append(d.dependencies, names...)
	}
}

// WithTag attaches a key/value pair for diagnostics and extension use.
func WithTag(key, value string) Option {
	return func(d *Definition) { d.tags[key] = value }
}

// NewDefinition validates and builds an immutable Definition.
//
//	def, err := container.NewDefinition("cache", func(c *container.Container) (any, error) {
//	    return cache.NewInMemory(), nil
//	}, container.WithScope(container.ScopePrototype))
func NewDefinition(name string, factory Factory, opts ...Option) (*Definition, error) {
	d := &Definition{
		name:    name,
		factory: factory,
		scope:   ScopeSingleton,
		source:  "runtime",
		tags:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.name == "" {
		return nil, ErrEmptyName
	}
	if d.factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilFactory, d.name)
	}
	if d.source == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptySource, d.name)
	}
	switch d.scope {
	case ScopeSingleton, ScopePrototype, ScopeRequest:
	default:
		return nil, fmt.Errorf("%w: %q for %q", ErrUnknownScope, d.scope, d.name)
	}
	// No request context exists while Refresh runs, so this combination
	// could never be instantiated.
	if d.eager && d.scope == ScopeRequest {
		return nil, fmt.Errorf("%w: %q", ErrEagerRequestScope, d.name)
	}

	return d, nil
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (d *Definition) Name() string     { return d.name }
func (d *Definition) Scope() Scope     { return d.scope }
func (d *Definition) Source() string   { return d.source }
func (d *Definition) IsEager() bool    { return d.eager }
func (d *Definition) IsOptional() bool { return d.optional }

// Dependencies returns a copy of the declared dependency names.
func (d *Definition) Dependencies() []string {
	out := make([]string, len(d.dependencies))
	copy(out, d.dependencies)
	return out
}

// Tag returns the value for key and whether it is set.
func (d *Definition) Tag(key string) (string, bool) {
	v, ok := d.tags[key]
	return v, ok
}

// Tags returns a copy of the tag map.
func (d *Definition) Tags() map[string]string {
	out := make(map[string]string, len(d.tags))
	for k, v := range d.tags {
		out[k] = v
	}
	return out
}

// CheckConditions evaluates the ordered condition list, short-circuiting on
// the first failing predicate. It returns whether all passed and, when one
// failed, its name.
func (d *Definition) CheckConditions(c *Container) (bool, string) {
	for _, cond := range d.conditions {
		if !cond.test(c) {
			return false, cond.name
		}
	}
	return true, ""
}
