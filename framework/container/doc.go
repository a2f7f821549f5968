// Package container provides a named-definition IoC container: a registry
// of immutable build recipes resolved on demand, with scoped caching, cycle
// detection and structured resolution diagnostics.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register definitions (directly or through ServiceProviders)
//  3. Refresh: c.Refresh() — freezes the registry and creates eager
//     definitions in declared-dependency order
//  4. Resolve: c.Get / c.TryGet / container.Resolve[T]
//  5. Shutdown: c.Shutdown() — best-effort, ordered teardown
//
// # Definitions
//
//	def, err := container.NewDefinition("cache", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Settings](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.New(cfg), nil
//	},
//	    container.WithScope(container.ScopeSingleton),
//	    container.WithDependencies("config"),
//	    container.Eager(),
//	)
//
// # Scopes
//
// Singleton definitions are created once per container, with concurrent
// first access serialized so the factory runs exactly once. Prototype
// definitions are rebuilt on every resolution. Request definitions live in
// a cache opened by EnterRequestContext and discarded by
// ExitRequestContext; resolving one with no open request context is a hard
// error, never a silent fallback.
//
// # Resolution failures
//
// Get reports failures with the typed errors from the diagnostics package:
// DependencyNotFoundError, ConditionNotMetError, CircularDependencyError,
// ScopeNotActiveError and CreationError. TryGet downgrades only the first
// two to a (nil, nil) result.
//
// # Concurrency
//
// All operations are safe for concurrent use. Cycle-detection stacks and
// request caches are local to one goroutine call chain, so parallel
// resolutions never observe each other's in-progress state.
package container
