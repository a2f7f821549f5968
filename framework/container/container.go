package container

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/loomworks/loom/framework/diagnostics"
)

// Registry errors.
var (
	ErrDuplicateDefinition = errors.New("container: definition already registered")
	ErrUnknownDependency   = errors.New("container: declared dependency is not registered")
	ErrNilDefinition       = errors.New("container: definition is nil")
)

// Container owns the definition registry and resolves names into fully
// constructed instances. Lifecycle: register definitions, Refresh (freeze +
// eager pass), resolve with Get/TryGet, Shutdown.
//
//	c := container.New()
//	def, _ := container.NewDefinition("repo", newRepo)
//	_ = c.Register(def)
//	_ = c.Refresh()
//	repo, err := container.Resolve[*Repo](c, "repo")
type Container struct {
	mu       sync.RWMutex
	registry map[string]*Definition
	order    []string // registration order, for listing and ordering ties
	frozen   bool

	refreshMu sync.Mutex
	refreshed bool

	singletons *singletonCache
	chains     sync.Map // goid → *resolutionChain
	requests   sync.Map // goid → *requestScope

	postMu sync.RWMutex
	post   []PostProcessor

	handlerMu sync.Mutex
	handlers  []func()
	closed    bool

	logger   *zap.Logger
	profiles map[string]bool
}

// ContainerOption configures a Container at construction time.
type ContainerOption func(*Container)

// WithLogger sets the structured logger (default is a no-op logger).
func WithLogger(l *zap.Logger) ContainerOption {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProfiles declares the active profile set consulted by the
// WhenProfile condition helper.
func WithProfiles(names ...string) ContainerOption {
	return func(c *Container) {
		for _, n := range names {
			c.profiles[n] = true
		}
	}
}

// New creates an empty container.
func New(opts ...ContainerOption) *Container {
	c := &Container{
		registry:   make(map[string]*Definition),
		singletons: newSingletonCache(),
		logger:     zap.NewNop(),
		profiles:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasProfile reports whether a profile is active on this container.
func (c *Container) HasProfile(name string) bool {
	return c.profiles[name]
}

// Logger returns the container's structured logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds a definition to the registry. It fails once the registry is
// frozen by Refresh, and on duplicate names.
func (c *Container) Register(def *Definition) error {
	if def == nil {
		return ErrNilDefinition
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return &diagnostics.RegistryFrozenError{Name: def.name}
	}
	if _, exists := c.registry[def.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDefinition, def.name)
	}

	c.registry[def.name] = def
	c.order = append(c.order, def.name)
	c.logger.Debug("definition registered",
		zap.String("name", def.name),
		zap.String("scope", string(def.scope)),
		zap.String("source", def.source))
	return nil
}

// ── Refresh ───────────────────────────────────────────────────────────────────

// Refresh freezes the registry and instantiates every eager definition in
// declared-dependency order (ties broken by registration order). The
// declared dependency graph is validated first: a cycle fails the call with
// a CircularDependencyError before any factory runs. Refresh is idempotent
// after its first successful completion.
func (c *Container) Refresh() error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.refreshed {
		return nil
	}

	order, err := c.dependencyOrder()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()

	for _, name := range order {
		def := c.definition(name)
		if def == nil || !def.eager {
			continue
		}
		if ok, failed := def.CheckConditions(c); !ok {
			c.logger.Debug("eager definition skipped, condition failed",
				zap.String("name", name),
				zap.String("condition", failed))
			continue
		}
		if _, err := c.Get(name); err != nil {
			return fmt.Errorf("eager instantiation of %q: %w", name, err)
		}
		c.logger.Debug("eager definition instantiated", zap.String("name", name))
	}

	c.mu.Lock()
	c.refreshed = true
	c.mu.Unlock()

	c.logger.Info("container refreshed",
		zap.Int("definitions", c.DefinitionCount()))
	return nil
}

// dependencyOrder topologically sorts the registry over declared
// dependencies, visiting in registration order so ties stay deterministic.
// It reports cycles with the ordered chain closing on itself.
func (c *Container) dependencyOrder() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	visited := make(map[string]bool, len(c.order))
	onStack := make(map[string]bool, len(c.order))
	stack := make([]string, 0, len(c.order))
	order := make([]string, 0, len(c.order))

	var visit func(name string) error
	visit = func(name string) error {
		if onStack[name] {
			chain := cycleChain(stack, name)
			return &diagnostics.CircularDependencyError{
				Report: diagnostics.Report{
					Message:        "declared dependency cycle detected during refresh",
					DependencyName: name,
					ResolutionPath: chain,
				},
				DependencyChain: chain,
			}
		}
		if visited[name] {
			return nil
		}

		onStack[name] = true
		stack = append(stack, name)

		for _, dep := range c.registry[name].dependencies {
			if _, exists := c.registry[dep]; !exists {
				return fmt.Errorf("%w: %q declared by %q", ErrUnknownDependency, dep, name)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		onStack[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range c.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cycleChain slices the active stack from the first occurrence of name and
// appends name again to close the loop: [A B C] + A → [A B C A].
func cycleChain(stack []string, name string) []string {
	start := 0
	for i, n := range stack {
		if n == name {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(stack)-start+1)
	chain = append(chain, stack[start:]...)
	chain = append(chain, name)
	return chain
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Has reports whether a name is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registry[name]
	return ok
}

// Definitions returns all registered names in registration order.
func (c *Container) Definitions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// DefinitionCount returns the number of registered definitions.
func (c *Container) DefinitionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// IsFrozen reports whether the registry has been frozen by Refresh.
func (c *Container) IsFrozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// IsRefreshed reports whether the first Refresh completed successfully.
func (c *Container) IsRefreshed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// definition returns the registered definition, or nil.
func (c *Container) definition(name string) *Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry[name]
}

// ── Shutdown ──────────────────────────────────────────────────────────────────

// AddShutdownHandler appends a teardown handler. Handlers run in
// registration order during Shutdown.
func (c *Container) AddShutdownHandler(fn func()) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// Shutdown runs every handler in registration order. A panicking handler is
// logged and does not prevent later handlers from running; teardown is
// best-effort, not transactional. The container is not reusable afterwards.
func (c *Container) Shutdown() {
	c.handlerMu.Lock()
	if c.closed {
		c.handlerMu.Unlock()
		return
	}
	c.closed = true
	handlers := c.handlers
	c.handlerMu.Unlock()

	for i, fn := range handlers {
		c.runHandler(i, fn)
	}
	c.logger.Info("container shut down", zap.Int("handlers", len(handlers)))
}

func (c *Container) runHandler(index int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("shutdown handler panicked",
				zap.Int("handler", index),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve resolves a name and type-asserts the result.
//
//	repo, err := container.Resolve[*Repo](c, "repo")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %q resolved to %T, want %T", name, v, zero)
	}
	return typed, nil
}
